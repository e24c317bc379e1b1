package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/notify"
)

func main() {
	var (
		configFile string
		queue      string
	)
	flag.StringVar(&configFile, "config", "configs/config.yaml", "Configuration file path")
	flag.StringVar(&queue, "queue", "push-workers", "NATS queue group")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogging(cfg.Log)

	if cfg.NATS.URL == "" {
		log.Fatal().Msg("nats.url is required for the notification worker")
	}

	var gateways notify.MultiGateway
	if cfg.Notification.HTTP.Endpoint != "" {
		gateways = append(gateways, notify.NewHTTPPushGateway(cfg.Notification.HTTP))
		log.Info().Str("endpoint", cfg.Notification.HTTP.Endpoint).Msg("HTTP push enabled")
	}
	if cfg.Notification.MQTT.BrokerURL != "" {
		mq, err := notify.NewMQTTGateway(cfg.Notification.MQTT, cfg.Server.Name+"-push-worker")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
		}
		defer mq.Close()
		gateways = append(gateways, mq)
		log.Info().Str("broker", cfg.Notification.MQTT.BrokerURL).Msg("MQTT push enabled")
	}
	if len(gateways) == 0 {
		log.Warn().Msg("No push transport configured, notifications are logged only")
		gateways = append(gateways, notify.LogGateway{})
	}

	nc, err := notify.Connect(cfg.NATS, cfg.Server.Name+"-push-worker")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer nc.Close()
	log.Info().Str("url", cfg.NATS.URL).Msg("Connected to NATS")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	subscriber := notify.NewSubscriber(nc, cfg.Notification.Subject, queue, gateways)
	if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Notification subscriber stopped")
	}
	log.Info().Msg("Notification worker stopped")
}
