package bus

import (
	"context"
	"log"
	"sync"

	"flaretrack/internal/domain/event"
)

// AsyncEventBus implements EventBus with asynchronous publishing. Projection
// updates ride on it when the caller can tolerate read-model lag.
type AsyncEventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	wg       sync.WaitGroup
	errorCh  chan error
}

// NewAsyncEventBus creates a new async event bus
func NewAsyncEventBus() *AsyncEventBus {
	return &AsyncEventBus{
		handlers: make(map[string][]EventHandler),
		errorCh:  make(chan error, 100),
	}
}

// Subscribe registers a handler for a specific event type
func (b *AsyncEventBus) Subscribe(eventType string, handler EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Start launches the error monitor goroutine.
func (b *AsyncEventBus) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case err, ok := <-b.errorCh:
				if !ok {
					return
				}
				log.Printf("async event handler error: %v", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop waits for in-flight handlers and closes the error channel.
func (b *AsyncEventBus) Stop() error {
	b.wg.Wait()
	close(b.errorCh)
	return nil
}

// Publish dispatches an event to all subscribed handlers without waiting.
func (b *AsyncEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	b.mu.RLock()
	handlers := b.handlers[evt.EventType()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	b.wg.Add(len(handlers))
	for _, handler := range handlers {
		go b.publishToHandler(ctx, handler, evt)
	}

	return nil
}

// PublishBatch publishes multiple events asynchronously
func (b *AsyncEventBus) PublishBatch(ctx context.Context, events []event.DomainEvent) error {
	for _, evt := range events {
		if err := b.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until all async event handlers have completed.
func (b *AsyncEventBus) Wait() {
	b.wg.Wait()
}

func (b *AsyncEventBus) publishToHandler(ctx context.Context, handler EventHandler, evt event.DomainEvent) {
	defer b.wg.Done()

	if err := handler.Handle(ctx, evt); err != nil {
		select {
		case b.errorCh <- err:
		default:
			log.Printf("error channel full, dropping error: %v", err)
		}
	}
}
