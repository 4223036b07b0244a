package bus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"flaretrack/internal/domain/event"
)

func TestAsyncEventBusPublishAndWait(t *testing.T) {
	b := NewAsyncEventBus()
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	handler := EventHandlerFunc(func(ctx context.Context, e event.DomainEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.AggregateID())
		return nil
	})
	if err := b.Subscribe("FlareCreated", handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := b.PublishBatch(ctx, []event.DomainEvent{created("f-1"), created("f-2")}); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}

	// Dispatch is concurrent; Wait is the only ordering guarantee.
	b.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("handled %d events after Wait, want 2", len(seen))
	}
	got := map[string]bool{seen[0]: true, seen[1]: true}
	if !got["f-1"] || !got["f-2"] {
		t.Errorf("seen = %v, want both f-1 and f-2", seen)
	}
}

func TestAsyncEventBusCollectsHandlerErrors(t *testing.T) {
	b := NewAsyncEventBus()
	ctx := context.Background()

	b.Subscribe("FlareCreated", EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return fmt.Errorf("projection unavailable")
		}))

	if err := b.Publish(ctx, created("f-1")); err != nil {
		t.Fatalf("Publish() error = %v, async publish must not surface handler errors", err)
	}
	b.Wait()

	select {
	case err := <-b.errorCh:
		if err == nil {
			t.Error("error channel delivered nil")
		}
	case <-time.After(time.Second):
		t.Error("handler error never reached the error channel")
	}
}

func TestAsyncEventBusStopDrainsInFlightHandlers(t *testing.T) {
	b := NewAsyncEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	started := make(chan struct{})
	var handled bool
	var mu sync.Mutex
	b.Subscribe("FlareCreated", EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			handled = true
			mu.Unlock()
			return nil
		}))

	if err := b.Publish(ctx, created("f-1")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	<-started

	if err := b.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !handled {
		t.Error("Stop() returned before the in-flight handler finished")
	}
}

func TestAsyncEventBusNoSubscribers(t *testing.T) {
	b := NewAsyncEventBus()
	if err := b.Publish(context.Background(), created("f-1")); err != nil {
		t.Errorf("Publish() with no subscribers error = %v, want nil", err)
	}
	b.Wait()
}
