package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"sangha/sangha-common/domain"
	sangharedis "sangha/sangha-common/redis"
	"sangha/sangha-common/stats"
	"sangha/sangha-data/internal/repository"
)

// StatsService serves the search view and the dashboard.
type StatsService interface {
	// Report filters the current collection by term and aggregates it.
	Report(ctx context.Context, term string) (stats.Report, error)

	// Breakdown returns the monk/novice detail of one status counter.
	Breakdown(ctx context.Context, kind domain.StatusKind, term string) (stats.Tally, error)

	// Dashboard returns the aggregator's cached dashboard when it matches the
	// current revision and a locally computed one otherwise.
	Dashboard(ctx context.Context) (stats.Dashboard, error)
}

type statsService struct {
	repo         repository.MembersRepository
	memo         *stats.Memo
	kv           sangharedis.KV
	dashboardKey string
	now          func() time.Time
	logger       *zap.Logger
}

// NewStatsService builds the service. kv may be nil when Redis is disabled.
func NewStatsService(repo repository.MembersRepository, memo *stats.Memo, kv sangharedis.KV, dashboardKey string, logger *zap.Logger) StatsService {
	if memo == nil {
		memo = stats.NewMemo(0)
	}
	return &statsService{
		repo:         repo,
		memo:         memo,
		kv:           kv,
		dashboardKey: dashboardKey,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *statsService) Report(ctx context.Context, term string) (stats.Report, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return stats.Report{}, err
	}
	r, hit := s.memo.Report(snap, term)
	s.logger.Debug("Stats report",
		zap.String("term", term),
		zap.String("epoch", snap.Epoch),
		zap.Uint64("revision", snap.Revision),
		zap.Bool("cached", hit),
		zap.Int("matched", len(r.Members)),
	)
	return r, nil
}

func (s *statsService) Breakdown(ctx context.Context, kind domain.StatusKind, term string) (stats.Tally, error) {
	r, err := s.Report(ctx, term)
	if err != nil {
		return stats.Tally{}, err
	}
	return r.Summary.Breakdown(kind), nil
}

func (s *statsService) Dashboard(ctx context.Context) (stats.Dashboard, error) {
	r, err := s.Report(ctx, "")
	if err != nil {
		return stats.Dashboard{}, err
	}

	// A dashboard from another store epoch can share the revision number.
	if cached, ok := s.cachedDashboard(ctx); ok && cached.Version() == r.Version() {
		return cached, nil
	}
	return stats.NewDashboard(r, stats.SourceLocal, s.now()), nil
}

func (s *statsService) cachedDashboard(ctx context.Context) (stats.Dashboard, bool) {
	if s.kv == nil {
		return stats.Dashboard{}, false
	}
	raw, err := s.kv.Get(ctx, s.dashboardKey)
	if err != nil {
		if !errors.Is(err, sangharedis.ErrCacheMiss) {
			s.logger.Warn("Failed to read cached dashboard, computing locally", zap.Error(err))
		}
		return stats.Dashboard{}, false
	}

	var d stats.Dashboard
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		s.logger.Warn("Cached dashboard is not valid JSON", zap.Error(err))
		return stats.Dashboard{}, false
	}
	d.Source = stats.SourceAggregator
	return d, true
}
