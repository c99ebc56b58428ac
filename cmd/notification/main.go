package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"ecorder/internal/config"
	"ecorder/internal/consumer"
	"ecorder/internal/domain/model"
	"ecorder/internal/handler"
	"ecorder/internal/infra/broker"
	"ecorder/internal/infra/db"
	"ecorder/internal/infra/mail"
	infraRepo "ecorder/internal/infra/repository"
	"ecorder/internal/infra/system"
	"ecorder/internal/logger"
	"ecorder/internal/server"
	"ecorder/internal/usecase"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("8081")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Service: "notification", Env: cfg.GoEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("notification service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := server.WithSignals(context.Background())
	defer cancel()

	//DB接続
	gormDB, err := db.Connect(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer db.Close(gormDB)
	if err := db.MigrateNotifications(gormDB); err != nil {
		return err
	}

	//メール（APIキーが無ければログだけ）
	var mailer usecase.Mailer = mail.NewLogMailer(log)
	if cfg.SendGridAPIKey != "" {
		mailer = mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailSender)
	}

	notificationUC := usecase.NewNotificationUsecase(
		infraRepo.NewNotificationGormRepository(gormDB),
		mailer,
		system.UUIDGenerator{},
		system.RealClock{},
		log,
	)

	e := server.New(cfg, log)
	server.RegisterNotificationRoutes(e, handler.NewNotificationHandler(notificationUC))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx, e, cfg.ListenAddr(), log)
	})

	if len(cfg.KafkaBrokers) > 0 {
		groupID := cfg.KafkaGroupID
		if groupID == "" {
			groupID = "notification-service"
		}

		topics := make([]string, 0, len(model.NotificationEventTypes()))
		for _, t := range model.NotificationEventTypes() {
			topics = append(topics, string(t))
		}

		events := broker.NewConsumer(cfg.KafkaBrokers, groupID, topics, consumer.NewNotificationHandler(notificationUC, log), log)
		defer events.Close()

		g.Go(func() error {
			return events.Run(gctx)
		})
	} else {
		log.Warn("KAFKA_BROKERS not set, no events will be consumed")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
