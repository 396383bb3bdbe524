package aggregator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	agg "sangha/sangha-aggregator/internal/aggregator"
	"sangha/sangha-common/domain"
	"sangha/sangha-common/stats"
)

// MockSnapshotSource is a mock source.SnapshotSource.
type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []stats.Dashboard
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, d stats.Dashboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, d)
	return p.err
}

func monks(rev uint64, n int) domain.Snapshot {
	snap := domain.Snapshot{Epoch: "boot-1", Revision: rev}
	for i := 0; i < n; i++ {
		snap.Members = append(snap.Members, domain.Member{ID: string(rune('a' + i)), Title: domain.TitleMonk})
	}
	return snap
}

func TestRefresher_Refresh_StoresAndPublishes(t *testing.T) {
	src := new(MockSnapshotSource)
	src.On("Snapshot", mock.Anything).Return(monks(4, 3), nil).Once()
	kv := newFakeKVStore()
	pub := &recordingPublisher{}
	r := agg.NewRefresher(src, agg.NewCacheManager(kv, dashboardKey, time.Minute, zap.NewNop()), pub, zap.NewNop())

	d, err := r.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(4), d.Revision)
	assert.Equal(t, 3, d.Summary.TotalSangha)
	assert.Equal(t, stats.SourceAggregator, d.Source)
	require.Len(t, pub.published, 1)
	assert.Equal(t, uint64(4), pub.published[0].Revision)

	last, ok := r.LastVersion()
	assert.True(t, ok)
	assert.Equal(t, domain.Version{Epoch: "boot-1", Revision: 4}, last)
	src.AssertExpectations(t)
}

func TestRefresher_Refresh_SourceError(t *testing.T) {
	src := new(MockSnapshotSource)
	src.On("Snapshot", mock.Anything).Return(domain.Snapshot{}, errors.New("connection refused")).Once()
	kv := newFakeKVStore()
	r := agg.NewRefresher(src, agg.NewCacheManager(kv, dashboardKey, time.Minute, zap.NewNop()), nil, zap.NewNop())

	_, err := r.Refresh(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, kv.setCount())
	_, ok := r.LastVersion()
	assert.False(t, ok)
}

func TestRefresher_Refresh_PublishErrorIsNotFatal(t *testing.T) {
	src := new(MockSnapshotSource)
	src.On("Snapshot", mock.Anything).Return(monks(1, 1), nil).Once()
	pub := &recordingPublisher{err: errors.New("broker down")}
	r := agg.NewRefresher(src, agg.NewCacheManager(newFakeKVStore(), dashboardKey, time.Minute, zap.NewNop()), pub, zap.NewNop())

	d, err := r.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Revision)
}

func TestRefresher_Refresh_DropsStaleRevision(t *testing.T) {
	src := new(MockSnapshotSource)
	src.On("Snapshot", mock.Anything).Return(monks(9, 2), nil).Once()
	src.On("Snapshot", mock.Anything).Return(monks(8, 5), nil).Once()
	kv := newFakeKVStore()
	pub := &recordingPublisher{}
	r := agg.NewRefresher(src, agg.NewCacheManager(kv, dashboardKey, time.Minute, zap.NewNop()), pub, zap.NewNop())

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	_, err = r.Refresh(context.Background())
	assert.ErrorIs(t, err, agg.ErrStale)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, kv.setCount())
}

func TestRefresher_Refresh_NewEpochAtLowerRevision(t *testing.T) {
	// The data service restarted with an in-memory store: revisions begin
	// again from zero under a new epoch.
	restarted := monks(2, 1)
	restarted.Epoch = "boot-2"
	src := new(MockSnapshotSource)
	src.On("Snapshot", mock.Anything).Return(monks(5, 3), nil).Once()
	src.On("Snapshot", mock.Anything).Return(restarted, nil).Once()
	kv := newFakeKVStore()
	cache := agg.NewCacheManager(kv, dashboardKey, time.Minute, zap.NewNop())
	pub := &recordingPublisher{}
	r := agg.NewRefresher(src, cache, pub, zap.NewNop())
	ctx := context.Background()

	_, err := r.Refresh(ctx)
	require.NoError(t, err)

	d, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Version{Epoch: "boot-2", Revision: 2}, d.Version())
	assert.Equal(t, 1, d.Summary.TotalSangha)

	require.Len(t, pub.published, 2)
	assert.Equal(t, "boot-2", pub.published[1].Epoch)
	assert.Equal(t, 2, kv.setCount())

	cached, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Version{Epoch: "boot-2", Revision: 2}, cached.Version())

	last, ok := r.LastVersion()
	assert.True(t, ok)
	assert.Equal(t, domain.Version{Epoch: "boot-2", Revision: 2}, last)
	src.AssertExpectations(t)
}

// blockingSource blocks its first call until the context is cancelled.
type blockingSource struct {
	started chan struct{}
	mu      sync.Mutex
	calls   int
	snap    domain.Snapshot
}

func (s *blockingSource) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first {
		close(s.started)
		<-ctx.Done()
		return domain.Snapshot{}, ctx.Err()
	}
	return s.snap, nil
}

func TestRefresher_NewTriggerCancelsInFlight(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), snap: monks(2, 4)}
	pub := &recordingPublisher{}
	r := agg.NewRefresher(src, agg.NewCacheManager(newFakeKVStore(), dashboardKey, time.Minute, zap.NewNop()), pub, zap.NewNop())

	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Refresh(context.Background())
		firstErr <- err
	}()
	<-src.started

	d, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.Revision)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, agg.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight refresh was not cancelled")
	}
	assert.Len(t, pub.published, 1)
}

func TestRefresher_CallerCancellationIsNotSuperseded(t *testing.T) {
	src := new(MockSnapshotSource)
	src.On("Snapshot", mock.Anything).Return(domain.Snapshot{}, context.Canceled).Once()
	r := agg.NewRefresher(src, agg.NewCacheManager(newFakeKVStore(), dashboardKey, time.Minute, zap.NewNop()), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Refresh(ctx)

	require.Error(t, err)
	assert.NotErrorIs(t, err, agg.ErrSuperseded)
	assert.ErrorIs(t, err, context.Canceled)
}
