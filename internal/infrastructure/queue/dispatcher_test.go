package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usermanager/user-management/internal/core/domain"
)

type memAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
}

func (r *memAuditRepo) InsertEvent(_ context.Context, ev *domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *ev)
	return nil
}

func (r *memAuditRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func TestDispatcher_PersistsEvents(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Record(domain.AuthEvent{Type: domain.AuthEventLogin, Email: fmt.Sprintf("u%d@x.com", i), Success: true})
	}

	assert.Eventually(t, func() bool { return len(repo.snapshot()) == 10 }, time.Second, 5*time.Millisecond)
	cancel()
	d.Wait()
}

func TestDispatcher_PreservesPerEmailOrder(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Record(domain.AuthEvent{Type: domain.AuthEventLogin, Email: "a@x.com", Reason: fmt.Sprint(i)})
	}

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 50 }, time.Second, 5*time.Millisecond)
	for i, ev := range repo.snapshot() {
		assert.Equal(t, fmt.Sprint(i), ev.Reason)
	}
	cancel()
	d.Wait()
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(domain.AuthEvent{Email: "a@x.com"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	assert.Len(t, d.workers[0], channelBuffer)
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	for i := 0; i < 5; i++ {
		d.Record(domain.AuthEvent{Email: "a@x.com"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	assert.Len(t, repo.snapshot(), 5)
}

func TestDispatcher_RepositoryErrorDoesNotStopWorker(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("insert failed")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(domain.AuthEvent{Email: "a@x.com"})
	require.Eventually(t, func() bool { return len(d.workers[0]) == 0 }, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	repo.err = nil
	repo.mu.Unlock()

	d.Record(domain.AuthEvent{Email: "a@x.com", Reason: "second"})
	assert.Eventually(t, func() bool {
		evs := repo.snapshot()
		return len(evs) > 0 && evs[len(evs)-1].Reason == "second"
	}, time.Second, 5*time.Millisecond)
	cancel()
	d.Wait()
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &memAuditRepo{}, zerolog.Nop())
	first := d.shardIndex("a@x.com")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("a@x.com"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}
