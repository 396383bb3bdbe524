package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sangha/sangha-aggregator/internal/source"
	"sangha/sangha-common/domain"
	"sangha/sangha-common/stats"
)

var (
	// ErrSuperseded is returned by a refresh that a newer trigger cancelled.
	ErrSuperseded = errors.New("refresh superseded")
	// ErrStale is returned when the fetched snapshot is older than the last
	// dashboard already published from the same store epoch.
	ErrStale = errors.New("stale snapshot")
)

// Publisher broadcasts a freshly computed dashboard.
type Publisher interface {
	Publish(ctx context.Context, d stats.Dashboard) error
}

// Refresher recomputes the dashboard from the latest snapshot.
//
// Only the most recent trigger runs to completion: starting a refresh cancels
// the one in flight. Published revisions never go backwards within a store
// epoch; a new epoch starts over.
type Refresher struct {
	source    source.SnapshotSource
	cache     *CacheManager
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc

	publishMu   sync.Mutex
	published   bool
	lastVersion domain.Version
}

// NewRefresher creates a refresher. publisher may be nil.
func NewRefresher(src source.SnapshotSource, cache *CacheManager, publisher Publisher, logger *zap.Logger) *Refresher {
	return &Refresher{
		source:    src,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Refresh fetches a snapshot, computes the dashboard, caches and publishes it.
func (r *Refresher) Refresh(ctx context.Context) (*stats.Dashboard, error) {
	runCtx, done := r.begin(ctx)
	defer done()

	snap, err := r.source.Snapshot(runCtx)
	if err != nil {
		if r.superseded(ctx, runCtx) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	d := stats.NewDashboard(stats.Compute(snap, ""), stats.SourceAggregator, r.now())
	if r.superseded(ctx, runCtx) {
		return nil, ErrSuperseded
	}

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	if r.published && d.Version().Before(r.lastVersion) {
		r.logger.Debug("Dropped stale dashboard",
			zap.Uint64("revision", d.Revision),
			zap.Uint64("last_revision", r.lastVersion.Revision),
		)
		return nil, ErrStale
	}
	if r.published && d.Epoch != r.lastVersion.Epoch {
		r.logger.Info("Member store epoch changed",
			zap.String("epoch", d.Epoch),
			zap.String("last_epoch", r.lastVersion.Epoch),
			zap.Uint64("revision", d.Revision),
		)
	}

	if _, err := r.cache.Store(ctx, d); err != nil {
		return nil, err
	}
	r.published = true
	r.lastVersion = d.Version()

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, d); err != nil {
			r.logger.Warn("Failed to publish dashboard",
				zap.Uint64("revision", d.Revision),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("Refreshed dashboard",
		zap.String("epoch", d.Epoch),
		zap.Uint64("revision", d.Revision),
		zap.Int("total_sangha", d.Summary.TotalSangha),
	)
	return &d, nil
}

// LastVersion reports the version of the last stored dashboard.
func (r *Refresher) LastVersion() (domain.Version, bool) {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	return r.lastVersion, r.published
}

func (r *Refresher) begin(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	mine := r.seq
	r.cancel = cancel
	r.mu.Unlock()

	return runCtx, func() {
		r.mu.Lock()
		if r.seq == mine {
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()
	}
}

// superseded reports whether runCtx was cancelled by a newer refresh rather
// than by the caller.
func (r *Refresher) superseded(parent, runCtx context.Context) bool {
	return runCtx.Err() != nil && parent.Err() == nil
}
