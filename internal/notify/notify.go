// Package notify delivers push notifications to user devices. Callers hand
// messages to a Dispatcher, which never blocks them and never reports
// delivery failures back; the gateways do the actual sending.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Message is one push addressed to a device token.
type Message struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage builds a message with a fresh id.
func NewMessage(token, title, body string) Message {
	return Message{
		ID:        uuid.NewString(),
		Token:     token,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

// Gateway sends a message and returns a delivery id.
type Gateway interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogGateway only logs messages. It backs standalone runs without a broker.
type LogGateway struct{}

func (LogGateway) Send(_ context.Context, msg Message) (string, error) {
	log.Info().
		Str("messageID", msg.ID).
		Str("title", msg.Title).
		Str("body", msg.Body).
		Msg("Notification (log only)")
	return msg.ID, nil
}

// MultiGateway sends through every gateway in turn. It succeeds if at least
// one of them does.
type MultiGateway []Gateway

func (m MultiGateway) Send(ctx context.Context, msg Message) (string, error) {
	if len(m) == 0 {
		return "", errors.New("no gateways configured")
	}
	var (
		firstID string
		errs    []error
	)
	for _, gw := range m {
		id, err := gw.Send(ctx, msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if firstID == "" {
			firstID = id
		}
	}
	if firstID == "" {
		return "", errors.Join(errs...)
	}
	return firstID, nil
}
