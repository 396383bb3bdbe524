package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sangha/sangha-common/domain"
	"sangha/sangha-common/stats"
	"sangha/sangha-data/internal/repository"
)

// EventPublisher announces member mutations.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.MemberEvent) error
}

// NopPublisher drops every event. Used when Redis is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.MemberEvent) error { return nil }

// MemberService owns the member records.
type MemberService interface {
	// Draft returns a new record with the form defaults. It is not stored.
	Draft() domain.Member

	// Save creates m when its id is unknown and replaces the stored record otherwise.
	// Ids that collide with a members route fail with domain.ErrInvalidID.
	Save(ctx context.Context, m domain.Member) (*domain.Member, error)

	// Replace overwrites the member with id. The member must exist.
	Replace(ctx context.Context, id string, m domain.Member) (*domain.Member, error)

	// Edit applies one field-group edit to the member with id.
	Edit(ctx context.Context, id string, e domain.Edit) (*domain.Member, error)

	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Member, error)

	// List returns the members matching term in stored order.
	List(ctx context.Context, term string) ([]domain.Member, error)

	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

type memberService struct {
	repo   repository.MembersRepository
	events EventPublisher
	now    func() time.Time
	logger *zap.Logger
}

func NewMemberService(repo repository.MembersRepository, events EventPublisher, logger *zap.Logger) MemberService {
	if events == nil {
		events = NopPublisher{}
	}
	return &memberService{repo: repo, events: events, now: time.Now, logger: logger}
}

func (s *memberService) Draft() domain.Member {
	return domain.NewMember(s.now())
}

func (s *memberService) Save(ctx context.Context, m domain.Member) (*domain.Member, error) {
	if err := domain.CheckID(m.ID); err != nil {
		return nil, err
	}
	m.Normalize()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	_, err := s.repo.Get(ctx, m.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now().UTC()
		}
		rev, err := s.repo.Create(ctx, &m)
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent save created the id after our lookup.
			s.logger.Debug("Member created concurrently, saving as update", zap.String("member_id", m.ID))
			return s.update(ctx, m)
		}
		if err != nil {
			return nil, fmt.Errorf("create member: %w", err)
		}
		s.publish(ctx, domain.EventMemberCreated, m.ID, rev)
		return &m, nil
	case err != nil:
		return nil, fmt.Errorf("lookup member: %w", err)
	}

	return s.update(ctx, m)
}

func (s *memberService) Replace(ctx context.Context, id string, m domain.Member) (*domain.Member, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.ID = id
	if m.CreatedAt.IsZero() {
		m.CreatedAt = existing.CreatedAt
	}
	m.Normalize()
	return s.update(ctx, m)
}

func (s *memberService) Edit(ctx context.Context, id string, e domain.Edit) (*domain.Member, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.Apply(m); err != nil {
		return nil, err
	}
	s.logger.Debug("Applied member edit",
		zap.String("member_id", id),
		zap.String("group", string(domain.GroupOf(e))),
	)
	return s.update(ctx, *m)
}

func (s *memberService) update(ctx context.Context, m domain.Member) (*domain.Member, error) {
	rev, err := s.repo.Update(ctx, &m)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	s.publish(ctx, domain.EventMemberUpdated, m.ID, rev)
	return &m, nil
}

func (s *memberService) Delete(ctx context.Context, id string) error {
	rev, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.publish(ctx, domain.EventMemberDeleted, id, rev)
	return nil
}

func (s *memberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	return s.repo.Get(ctx, id)
}

func (s *memberService) List(ctx context.Context, term string) ([]domain.Member, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Filter(snap.Members, term), nil
}

func (s *memberService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return s.repo.Snapshot(ctx)
}

// publish logs publisher errors instead of failing the mutation.
func (s *memberService) publish(ctx context.Context, eventType, id string, v domain.Version) {
	ev := domain.MemberEvent{
		EventType: eventType,
		MemberID:  id,
		Epoch:     v.Epoch,
		Revision:  v.Revision,
		Timestamp: s.now().Unix(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish member event",
			zap.String("event_type", eventType),
			zap.String("member_id", id),
			zap.Error(err),
		)
	}
}
