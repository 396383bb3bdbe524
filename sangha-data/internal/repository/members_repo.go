package repository

import (
	"context"
	"errors"

	"sangha/sangha-common/domain"
)

var (
	// ErrNotFound is returned when no member has the requested id.
	ErrNotFound = errors.New("member not found")
	// ErrDuplicate is returned when creating a member whose id already exists.
	ErrDuplicate = errors.New("member already exists")
)

// MembersRepository stores the ordered member collection.
// Every successful mutation advances the revision and returns the new version.
// The epoch of a repository never changes while it is open.
type MembersRepository interface {
	// Snapshot returns an ordered copy of the collection with its version.
	Snapshot(ctx context.Context) (domain.Snapshot, error)

	Get(ctx context.Context, id string) (*domain.Member, error)

	// Create appends m. The id must be set and unused.
	Create(ctx context.Context, m *domain.Member) (domain.Version, error)

	// Update replaces the member with the same id, keeping its position.
	Update(ctx context.Context, m *domain.Member) (domain.Version, error)

	Delete(ctx context.Context, id string) (domain.Version, error)
}
