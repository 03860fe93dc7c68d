package entity

import (
	"time"
)

// ProfileKind selects which collection a profile lives in and which
// kind-specific fields are meaningful.
type ProfileKind string

const (
	KindDriver   ProfileKind = "driver"
	KindCustomer ProfileKind = "customer"
)

// Collection returns the document collection backing this kind.
func (k ProfileKind) Collection() string {
	switch k {
	case KindDriver:
		return "driver_profiles"
	default:
		return "customer_profiles"
	}
}

// Profile is the aggregate root for a marketplace participant, keyed by the
// principal id of its owner. Exactly one document exists per (kind, subject).
// Driver-specific fields are zero for customer profiles.
type Profile struct {
	SubjectID       string
	Kind            ProfileKind
	Name            string
	Phone           string
	Email           string
	City            string
	Area            string
	ProfileImageURL string

	// Driver fields
	TruckType     string
	TruckCapacity string
	WorkingHours  string
	IsAvailable   bool
	VehicleImages []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsComplete reports whether the profile carries every display field a public
// listing requires. Incomplete profiles are filtered out of listings client-side.
func (p *Profile) IsComplete() bool {
	if p.Name == "" || p.Phone == "" {
		return false
	}
	if p.Kind == KindDriver {
		return p.TruckType != "" && p.TruckCapacity != "" && p.City != "" && p.Area != ""
	}
	return true
}
