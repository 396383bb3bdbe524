package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"sangha/sangha-common/domain"
	sangharedis "sangha/sangha-common/redis"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.MemberEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.MemberEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType
	}
	return out
}

type fakeKV struct {
	data map[string]string
	err  error
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", sangharedis.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

var errRedisDown = errors.New("redis down")
