package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sangha/sangha-aggregator/internal/aggregator"
	"sangha/sangha-common/domain"
	sangharedis "sangha/sangha-common/redis"
	"sangha/sangha-common/stats"
)

const (
	testStream = "sangha:member-events"
	testGroup  = "sangha-aggregator-group"
)

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	err     error
	last    domain.Version
	hasLast bool
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*stats.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &stats.Dashboard{Epoch: f.last.Epoch, Revision: f.last.Revision}, nil
}

func (f *fakeRefresher) LastVersion() (domain.Version, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.hasLast
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setup(t *testing.T, r Refresher) (*EventConsumer, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewEventConsumer(client, r, zap.NewNop(), testStream, testGroup, "test-consumer", 10)
	c.block = 50 * time.Millisecond
	require.NoError(t, sangharedis.EnsureGroup(context.Background(), client, testStream, testGroup))
	return c, client
}

func publish(t *testing.T, client *redis.Client, ev domain.MemberEvent) {
	t.Helper()
	_, err := sangharedis.PublishJSON(context.Background(), client, testStream, ev)
	require.NoError(t, err)
}

func pending(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	p, err := client.XPending(context.Background(), testStream, testGroup).Result()
	require.NoError(t, err)
	return p.Count
}

func TestConsumeEvents_OneRefreshPerBatch(t *testing.T) {
	r := &fakeRefresher{}
	c, client := setup(t, r)

	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberCreated, MemberID: "m1", Revision: 1})
	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberUpdated, MemberID: "m1", Revision: 2})
	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberDeleted, MemberID: "m1", Revision: 3})

	require.NoError(t, c.consumeEvents(context.Background()))

	assert.Equal(t, 1, r.callCount())
	assert.Zero(t, pending(t, client))
}

func TestConsumeEvents_EmptyStream(t *testing.T) {
	r := &fakeRefresher{}
	c, _ := setup(t, r)

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Zero(t, r.callCount())
}

func TestConsumeEvents_SkipsAlreadyReflectedRevision(t *testing.T) {
	r := &fakeRefresher{last: domain.Version{Epoch: "boot-1", Revision: 5}, hasLast: true}
	c, client := setup(t, r)

	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberUpdated, MemberID: "m1", Epoch: "boot-1", Revision: 4})

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Zero(t, r.callCount())
	assert.Zero(t, pending(t, client))
}

func TestConsumeEvents_NewEpochRefreshesAtLowerRevision(t *testing.T) {
	r := &fakeRefresher{last: domain.Version{Epoch: "boot-1", Revision: 5}, hasLast: true}
	c, client := setup(t, r)

	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberCreated, MemberID: "m1", Epoch: "boot-2", Revision: 2})

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Equal(t, 1, r.callCount())
	assert.Zero(t, pending(t, client))
}

func TestConsumeEvents_UnknownTypeAckedWithoutRefresh(t *testing.T) {
	r := &fakeRefresher{}
	c, client := setup(t, r)

	publish(t, client, domain.MemberEvent{EventType: "temple.renamed"})

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Zero(t, r.callCount())
	assert.Zero(t, pending(t, client))
}

func TestConsumeEvents_UnparseableStaysPending(t *testing.T) {
	r := &fakeRefresher{}
	c, client := setup(t, r)

	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{"data": "not json"},
	}).Err())

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Zero(t, r.callCount())
	assert.Equal(t, int64(1), pending(t, client))
}

func TestConsumeEvents_FlatFields(t *testing.T) {
	r := &fakeRefresher{}
	c, client := setup(t, r)

	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{"eventType": domain.EventMemberCreated, "memberId": "m9", "revision": "12"},
	}).Err())

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Equal(t, 1, r.callCount())
}

func TestConsumeEvents_RefreshFailureLeavesPending(t *testing.T) {
	r := &fakeRefresher{err: errors.New("sangha-data unavailable")}
	c, client := setup(t, r)

	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberCreated, MemberID: "m1", Revision: 1})

	err := c.consumeEvents(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(1), pending(t, client))
}

func TestConsumeEvents_SupersededIsNotAnError(t *testing.T) {
	r := &fakeRefresher{err: aggregator.ErrSuperseded}
	c, client := setup(t, r)

	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberCreated, MemberID: "m1", Revision: 1})

	require.NoError(t, c.consumeEvents(context.Background()))
	assert.Zero(t, pending(t, client))
}

func TestStart_StopsOnCancel(t *testing.T) {
	r := &fakeRefresher{}
	c, client := setup(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	publish(t, client, domain.MemberEvent{EventType: domain.EventMemberCreated, MemberID: "m1", Revision: 1})
	assert.Eventually(t, func() bool { return r.callCount() == 1 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := parseEvent(sangharedis.StreamMessage{Values: map[string]interface{}{
		"data": `{"eventType":"member.updated","memberId":"m2","epoch":"boot-1","revision":8,"timestamp":1700000000}`,
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.EventMemberUpdated, ev.EventType)
	assert.Equal(t, "m2", ev.MemberID)
	assert.Equal(t, domain.Version{Epoch: "boot-1", Revision: 8}, ev.Version())

	ev, err = parseEvent(sangharedis.StreamMessage{Values: map[string]interface{}{
		"eventType": "member.deleted", "memberId": "m3", "epoch": "boot-2", "revision": "3",
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.Version{Epoch: "boot-2", Revision: 3}, ev.Version())

	_, err = parseEvent(sangharedis.StreamMessage{Values: map[string]interface{}{"memberId": "m2"}})
	assert.Error(t, err)
}
