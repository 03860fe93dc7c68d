package repository

import (
	"context"

	"github.com/movemate/movesync/internal/domain/entity"
)

// ProfileRepository bridges a principal identity and its persisted profile
// document. One instance exists per profile kind, wired by the composition root.
type ProfileRepository interface {
	// GetOwnProfile resolves the current principal and returns its profile,
	// creating and persisting a default one on first read.
	GetOwnProfile(ctx context.Context) (*entity.Profile, error)

	// SaveProfile validates required fields, rewrites the subject id to the
	// current principal, and fully overwrites the document.
	SaveProfile(ctx context.Context, p *entity.Profile) (*entity.Profile, error)

	// SetAvailability updates only the availability flag and returns the
	// profile as persisted.
	SetAvailability(ctx context.Context, available bool) (*entity.Profile, error)

	// ActiveListings returns the current set of complete profiles of this kind.
	ActiveListings(ctx context.Context) ([]*entity.Profile, error)

	// WatchActiveListings emits the complete-profile listing on every store
	// change until ctx is cancelled. Cancellation detaches the underlying
	// store subscription exactly once.
	WatchActiveListings(ctx context.Context) (<-chan []*entity.Profile, error)
}
