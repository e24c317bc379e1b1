package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/config"
)

// MQTTGateway publishes messages to a per-token topic on an MQTT broker.
type MQTTGateway struct {
	client       mqtt.Client
	topicPattern string
	qos          byte
}

// NewMQTTGateway connects to the broker. The paho client reconnects on its
// own after the first successful connect.
func NewMQTTGateway(cfg config.PushMQTT, clientID string) (*MQTTGateway, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Str("broker", cfg.BrokerURL).Msg("MQTT client connected")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Error().Err(err).Str("broker", cfg.BrokerURL).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return newMQTTGateway(client, cfg.TopicPattern, cfg.QoS), nil
}

func newMQTTGateway(client mqtt.Client, topicPattern string, qos byte) *MQTTGateway {
	return &MQTTGateway{client: client, topicPattern: topicPattern, qos: qos}
}

// Topic returns the topic a token's messages go to.
func (g *MQTTGateway) Topic(token string) string {
	return strings.ReplaceAll(g.topicPattern, "{token}", token)
}

func (g *MQTTGateway) Send(ctx context.Context, msg Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal mqtt payload: %w", err)
	}

	topic := g.Topic(msg.Token)
	token := g.client.Publish(topic, g.qos, false, data)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return "", fmt.Errorf("mqtt publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return "", fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return msg.ID, nil
}

// Close disconnects from the broker.
func (g *MQTTGateway) Close() {
	if g.client.IsConnected() {
		g.client.Disconnect(250)
	}
}
