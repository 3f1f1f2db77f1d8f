package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airassist/config"
	"github.com/Domenick1991/airassist/internal/email"
	"github.com/Domenick1991/airassist/internal/kafka"
	"github.com/Domenick1991/airassist/internal/logger"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal("load config", "path", cfgPath, "error", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "airassist-worker"})
	if !cfg.Kafka.Enabled() {
		log.Fatal("kafka brokers are not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(log.With("component", "email"))

	log.Info("worker started", "topic", cfg.Kafka.NotificationsTopic, "group", cfg.Kafka.GroupID)
	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		var event kafka.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn("decode event", "offset", msg.Offset, "error", err)
			return nil
		}
		if err := sender.Send(ctx, event); err != nil {
			log.Warn("send notification", "ref", event.Ref, "type", event.Type, "error", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", "error", err)
	}
	log.Info("worker stopped")
}
