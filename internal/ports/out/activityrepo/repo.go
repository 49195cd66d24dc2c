package activityrepo

import (
	"context"

	"github.com/mergington/activities-api/internal/domain"
)

// Repository is the activity registry.
//
// Mutations are atomic: the existence, duplicate and capacity checks happen in the same critical
// section (or transaction) as the write, so concurrent signups cannot produce duplicate entries.
//
// Result ordering expectations:
// - List returns activities in the order they were seeded.
// - Participants are returned in signup order.
type Repository interface {
	// List returns a snapshot of every activity.
	List(ctx context.Context) ([]domain.Activity, error)

	// Get returns the named activity or ErrNotFound.
	Get(ctx context.Context, name domain.ActivityName) (domain.Activity, error)

	// AddParticipant appends email to the roster.
	// Errors, in check order: ErrNotFound, ErrAlreadyEnrolled, ErrFull (only when enforceCapacity).
	AddParticipant(ctx context.Context, name domain.ActivityName, email string, enforceCapacity bool) error

	// RemoveParticipant removes email from the roster, keeping the order of the rest.
	// Errors, in check order: ErrNotFound, ErrNotEnrolled.
	RemoveParticipant(ctx context.Context, name domain.ActivityName, email string) error

	// Seed replaces the entire registry content.
	Seed(ctx context.Context, activities []domain.Activity) error
}
