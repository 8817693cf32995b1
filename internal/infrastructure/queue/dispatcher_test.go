package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

type recordingNotifier struct {
	mu    sync.Mutex
	got   []domain.CredentialDelivery
	err   error
	calls chan struct{}
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{err: err, calls: make(chan struct{}, 1024)}
}

func (n *recordingNotifier) Deliver(_ context.Context, d domain.CredentialDelivery) error {
	n.mu.Lock()
	n.got = append(n.got, d)
	n.mu.Unlock()
	n.calls <- struct{}{}
	return n.err
}

func (n *recordingNotifier) wait(t *testing.T, count int) []domain.CredentialDelivery {
	t.Helper()
	for i := 0; i < count; i++ {
		select {
		case <-n.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, count)
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.CredentialDelivery(nil), n.got...)
}

func TestDispatcher_DeliversInOrderPerAccount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := newRecordingNotifier(nil)
	d := NewDispatcher(4, notifier, zerolog.Nop())
	d.Start(ctx)

	base := time.Unix(1000, 0)
	for i := 0; i < 20; i++ {
		d.Enqueue(domain.CredentialDelivery{ExternalID: 77, IssuedAt: base.Add(time.Duration(i) * time.Second)})
	}

	got := notifier.wait(t, 20)
	for i := 1; i < len(got); i++ {
		if !got[i].IssuedAt.After(got[i-1].IssuedAt) {
			t.Fatalf("deliveries out of order at %d: %v then %v", i, got[i-1].IssuedAt, got[i].IssuedAt)
		}
	}
}

func TestDispatcher_FailuresDoNotStopWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := newRecordingNotifier(errors.New("redis down"))
	d := NewDispatcher(1, notifier, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(domain.CredentialDelivery{ExternalID: 1})
	d.Enqueue(domain.CredentialDelivery{ExternalID: 2})

	if got := notifier.wait(t, 2); len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
}

func TestDispatcher_DuplicateIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := newRecordingNotifier(domain.ErrDuplicateDelivery)
	d := NewDispatcher(2, notifier, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(domain.CredentialDelivery{ExternalID: 5})
	notifier.wait(t, 1)
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingNotifier(nil), zerolog.Nop())
	for _, id := range []int64{1, 42, 123456789, -3} {
		first := d.shardIndex(id)
		if first < 0 || first >= 8 {
			t.Fatalf("shard %d out of range for %d", first, id)
		}
		if d.shardIndex(id) != first {
			t.Fatalf("shard index for %d not stable", id)
		}
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingNotifier(nil), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

type slowNotifier struct {
	delay time.Duration

	mu        sync.Mutex
	delivered int
	ctxErrs   int
}

func (n *slowNotifier) Deliver(ctx context.Context, _ domain.CredentialDelivery) error {
	time.Sleep(n.delay)
	n.mu.Lock()
	defer n.mu.Unlock()
	if ctx.Err() != nil {
		n.ctxErrs++
		return ctx.Err()
	}
	n.delivered++
	return nil
}

func TestDispatcher_StopDrainsQueuedDeliveries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &slowNotifier{delay: 20 * time.Millisecond}
	d := NewDispatcher(1, notifier, zerolog.Nop())
	d.Start(ctx)

	for i := 0; i < 5; i++ {
		d.Enqueue(domain.CredentialDelivery{ExternalID: int64(i + 1)})
	}
	time.Sleep(5 * time.Millisecond)
	d.Stop()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.delivered != 5 {
		t.Fatalf("expected all 5 queued deliveries to be sent, got %d (ctx errors %d)", notifier.delivered, notifier.ctxErrs)
	}
}

func TestDispatcher_DeliverOutlivesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	notifier := &slowNotifier{delay: 10 * time.Millisecond}
	d := NewDispatcher(1, notifier, zerolog.Nop())

	cancel()
	d.deliver(ctx, 0, domain.CredentialDelivery{ExternalID: 1})

	if notifier.delivered != 1 || notifier.ctxErrs != 0 {
		t.Fatalf("delivery must not inherit cancellation: delivered=%d ctxErrs=%d", notifier.delivered, notifier.ctxErrs)
	}
}

func TestDispatcher_EnqueueAfterStopIsDropped(t *testing.T) {
	notifier := newRecordingNotifier(nil)
	d := NewDispatcher(2, notifier, zerolog.Nop())
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	finished := make(chan struct{})
	go func() {
		d.Enqueue(domain.CredentialDelivery{ExternalID: 9})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked after stop")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.got) != 0 {
		t.Fatalf("nothing must be delivered after stop, got %d", len(notifier.got))
	}
}
