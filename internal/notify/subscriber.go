package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Subscriber consumes queued messages from NATS and delivers them.
type Subscriber struct {
	nc      *nats.Conn
	subject string
	queue   string
	gateway Gateway
	timeout time.Duration
}

// NewSubscriber creates a subscriber in the given queue group so several
// workers share the load.
func NewSubscriber(nc *nats.Conn, subject, queue string, gateway Gateway) *Subscriber {
	return &Subscriber{
		nc:      nc,
		subject: subject,
		queue:   queue,
		gateway: gateway,
		timeout: 15 * time.Second,
	}
}

// Start subscribes and blocks until ctx is done.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.nc.QueueSubscribe(s.subject, s.queue, s.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}

	log.Info().
		Str("subject", s.subject).
		Str("queue", s.queue).
		Msg("Notification subscriber started")

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain notification subscription")
	}
	return ctx.Err()
}

func (s *Subscriber) handleMessage(msg *nats.Msg) {
	s.Handle(msg.Data)
}

// Handle decodes and delivers one message. Failures are logged only.
func (s *Subscriber) Handle(data []byte) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal notification")
		return
	}
	if m.Token == "" {
		log.Warn().Str("messageID", m.ID).Msg("Notification without token skipped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	deliveryID, err := s.gateway.Send(ctx, m)
	if err != nil {
		log.Warn().Err(err).Str("messageID", m.ID).Msg("Push delivery failed")
		return
	}
	log.Info().
		Str("messageID", m.ID).
		Str("deliveryID", deliveryID).
		Msg("Push delivered")
}
