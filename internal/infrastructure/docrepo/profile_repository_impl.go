package docrepo

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/docstore"
	"github.com/movemate/movesync/internal/domain/entity"
	"github.com/movemate/movesync/internal/domain/repository"
	"github.com/movemate/movesync/internal/identity"
)

// ProfileRepository persists one profile document per (kind, principal) over
// the docstore port.
type ProfileRepository struct {
	store    docstore.Store
	ident    identity.Provider
	kind     entity.ProfileKind
	validate *validator.Validate
	logger   *logrus.Logger

	now func() time.Time
}

func NewProfileRepository(store docstore.Store, ident identity.Provider, kind entity.ProfileKind, logger *logrus.Logger) *ProfileRepository {
	return &ProfileRepository{
		store:    store,
		ident:    ident,
		kind:     kind,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the repository clock. Tests use it to produce distinct
// deterministic timestamps.
func (r *ProfileRepository) WithClock(now func() time.Time) *ProfileRepository {
	r.now = now
	return r
}

// GetOwnProfile is a fetch-or-create: a miss synthesizes a default profile,
// persists it, and returns it. A second read without intervening writes
// returns the same document untouched.
func (r *ProfileRepository) GetOwnProfile(ctx context.Context) (*entity.Profile, error) {
	pid, ok := r.ident.CurrentPrincipalID(ctx)
	if !ok {
		return nil, repository.ErrUnauthenticated
	}
	p, err := r.tryGet(ctx, pid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	p = r.defaultProfile(pid)
	if err := r.store.Set(ctx, r.kind.Collection(), pid, profileToDoc(p)); err != nil {
		return nil, &repository.StoreError{Op: "create default profile", Err: err}
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"kind": r.kind, "subject_id": pid}).Info("created default profile")
	}
	return p, nil
}

func (r *ProfileRepository) tryGet(ctx context.Context, pid string) (*entity.Profile, error) {
	doc, err := r.store.Get(ctx, r.kind.Collection(), pid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, &repository.StoreError{Op: "get profile", Err: err}
	}
	return profileFromDoc(doc), nil
}

func (r *ProfileRepository) defaultProfile(pid string) *entity.Profile {
	now := r.now().UTC()
	return &entity.Profile{
		SubjectID: pid,
		Kind:      r.kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SaveProfile fully overwrites the document after the required-field check.
// The subject id is always rewritten to the current principal; a caller can
// never address another subject's document.
func (r *ProfileRepository) SaveProfile(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	pid, ok := r.ident.CurrentPrincipalID(ctx)
	if !ok {
		return nil, repository.ErrUnauthenticated
	}
	if verr := r.checkRequired(p); verr != nil {
		return nil, verr
	}

	saved := *p
	saved.SubjectID = pid
	saved.Kind = r.kind
	saved.UpdatedAt = r.now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}
	if err := r.store.Set(ctx, r.kind.Collection(), pid, profileToDoc(&saved)); err != nil {
		return nil, &repository.StoreError{Op: "save profile", Err: err}
	}
	return &saved, nil
}

// SetAvailability rewrites only the availability flag on the stored profile.
func (r *ProfileRepository) SetAvailability(ctx context.Context, available bool) (*entity.Profile, error) {
	p, err := r.GetOwnProfile(ctx)
	if err != nil {
		return nil, err
	}
	p.IsAvailable = available
	p.UpdatedAt = r.now().UTC()
	if err := r.store.Set(ctx, r.kind.Collection(), p.SubjectID, profileToDoc(p)); err != nil {
		return nil, &repository.StoreError{Op: "set availability", Err: err}
	}
	return p, nil
}

func (r *ProfileRepository) checkRequired(p *entity.Profile) *repository.ValidationError {
	required := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"phone", p.Phone},
	}
	if r.kind == entity.KindDriver {
		required = append(required,
			struct{ name, value string }{"truckType", p.TruckType},
			struct{ name, value string }{"truckCapacity", p.TruckCapacity},
			struct{ name, value string }{"city", p.City},
			struct{ name, value string }{"area", p.Area},
		)
	}
	var missing []string
	for _, f := range required {
		if err := r.validate.Var(f.value, "required"); err != nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &repository.ValidationError{Fields: missing}
	}
	return nil
}

// ActiveListings returns the current complete profiles of this kind.
func (r *ProfileRepository) ActiveListings(ctx context.Context) ([]*entity.Profile, error) {
	docs, err := r.store.Query(ctx, docstore.Query{Collection: r.kind.Collection()})
	if err != nil {
		return nil, &repository.StoreError{Op: "query listings", Err: err}
	}
	return r.filterComplete(docs), nil
}

// WatchActiveListings re-evaluates the completeness filter on every store
// push and emits the fully materialized list. Cancelling ctx detaches the
// store subscription exactly once; resubscribing starts fresh.
func (r *ProfileRepository) WatchActiveListings(ctx context.Context) (<-chan []*entity.Profile, error) {
	sub, err := r.store.Subscribe(ctx, docstore.Query{Collection: r.kind.Collection()})
	if err != nil {
		return nil, &repository.StoreError{Op: "subscribe listings", Err: err}
	}
	out := make(chan []*entity.Profile, 1)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case docs, ok := <-sub.Snapshots():
				if !ok {
					return
				}
				listing := r.filterComplete(docs)
				select {
				case out <- listing:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *ProfileRepository) filterComplete(docs []docstore.Document) []*entity.Profile {
	out := []*entity.Profile{}
	for _, doc := range docs {
		p := profileFromDoc(doc)
		if p.IsComplete() {
			out = append(out, p)
		}
	}
	return out
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
