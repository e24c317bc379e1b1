package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/config"
)

// Connect dials NATS with the reconnect and logging options every binary uses.
func Connect(cfg config.NATSConfig, name string) (*nats.Conn, error) {
	return nats.Connect(cfg.URL,
		nats.Name(name),
		nats.UserInfo(cfg.Username, cfg.Password),
		nats.ReconnectWait(cfg.ReconnectInterval),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Msg("Reconnected to NATS")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			log.Error().Err(err).Str("subject", subject).Msg("NATS error")
		}),
	)
}

// Publisher is the part of *nats.Conn the gateway needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSGateway hands messages to the notification worker over NATS. The
// delivery id is the message id.
type NATSGateway struct {
	pub     Publisher
	subject string
}

// NewNATSGateway creates a gateway publishing to subject.
func NewNATSGateway(pub Publisher, subject string) *NATSGateway {
	return &NATSGateway{pub: pub, subject: subject}
}

func (g *NATSGateway) Send(_ context.Context, msg Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}
	if err := g.pub.Publish(g.subject, data); err != nil {
		return "", fmt.Errorf("publish notification: %w", err)
	}
	return msg.ID, nil
}
