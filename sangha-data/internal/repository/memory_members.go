package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sangha/sangha-common/domain"
)

// MemoryMembersRepo keeps the collection in process. It is the default
// backend when DB_ENABLED is false. Each instance has a fresh epoch, so
// revisions restarting at zero are not mistaken for older states.
type MemoryMembersRepo struct {
	mu       sync.RWMutex
	members  []domain.Member
	index    map[string]int // id -> position in members
	epoch    string
	revision uint64
}

func NewMemoryMembersRepo() *MemoryMembersRepo {
	return &MemoryMembersRepo{index: map[string]int{}, epoch: uuid.NewString()}
}

var _ MembersRepository = (*MemoryMembersRepo)(nil)

func (r *MemoryMembersRepo) Snapshot(_ context.Context) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, len(r.members))
	for i := range r.members {
		out[i] = r.members[i].Clone()
	}
	return domain.Snapshot{Epoch: r.epoch, Revision: r.revision, Members: out}, nil
}

func (r *MemoryMembersRepo) Get(_ context.Context, id string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m := r.members[i].Clone()
	return &m, nil
}

func (r *MemoryMembersRepo) Create(_ context.Context, m *domain.Member) (domain.Version, error) {
	if m.ID == "" {
		return domain.Version{}, fmt.Errorf("create member: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[m.ID]; ok {
		return domain.Version{}, fmt.Errorf("%w: %s", ErrDuplicate, m.ID)
	}
	r.index[m.ID] = len(r.members)
	r.members = append(r.members, m.Clone())
	r.revision++
	return r.version(), nil
}

func (r *MemoryMembersRepo) Update(_ context.Context, m *domain.Member) (domain.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[m.ID]
	if !ok {
		return domain.Version{}, fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	r.members[i] = m.Clone()
	r.revision++
	return r.version(), nil
}

func (r *MemoryMembersRepo) Delete(_ context.Context, id string) (domain.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return domain.Version{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.members); j++ {
		r.index[r.members[j].ID] = j
	}
	r.revision++
	return r.version(), nil
}

// version must be called with mu held.
func (r *MemoryMembersRepo) version() domain.Version {
	return domain.Version{Epoch: r.epoch, Revision: r.revision}
}
