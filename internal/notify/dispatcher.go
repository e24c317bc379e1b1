package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher queues messages and sends them from a fixed pool of workers.
type Dispatcher struct {
	gateway Gateway
	timeout time.Duration

	mu     sync.RWMutex
	queue  chan Message
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers draining a queue of queueSize messages.
func NewDispatcher(gateway Gateway, queueSize, workers int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		gateway: gateway,
		timeout: 15 * time.Second,
		queue:   make(chan Message, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// SendAsync enqueues a push. It never blocks: when the queue is full, or the
// dispatcher is closed, the message is dropped with a warning.
func (d *Dispatcher) SendAsync(token, title, body string) {
	msg := NewMessage(token, title, body)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn().Str("title", title).Msg("Notification dropped, dispatcher closed")
		return
	}
	select {
	case d.queue <- msg:
	default:
		log.Warn().Str("title", title).Msg("Notification dropped, queue full")
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("messageID", msg.ID).Msg("Notification gateway panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	deliveryID, err := d.gateway.Send(ctx, msg)
	if err != nil {
		log.Warn().Err(err).Str("messageID", msg.ID).Str("title", msg.Title).Msg("Notification delivery failed")
		return
	}
	log.Debug().Str("messageID", msg.ID).Str("deliveryID", deliveryID).Msg("Notification sent")
}

// Close stops accepting messages and waits for queued ones to be sent, or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
