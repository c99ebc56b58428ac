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
	"ecorder/internal/infra/cache"
	"ecorder/internal/infra/db"
	"ecorder/internal/infra/mongostore"
	infraRepo "ecorder/internal/infra/repository"
	"ecorder/internal/infra/system"
	"ecorder/internal/infra/upstream"
	"ecorder/internal/logger"
	"ecorder/internal/middleware"
	repo "ecorder/internal/repository"
	"ecorder/internal/server"
	"ecorder/internal/usecase"
	"ecorder/internal/validator"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

type eventPublisher interface {
	usecase.EventPublisher
	Close() error
}

func main() {
	//.env は無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load("8080")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Service: "order", Env: cfg.GoEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("order service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := server.WithSignals(context.Background())
	defer cancel()

	//注文ストア
	orders, closeStore, err := openOrderStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	//ログアウト済みトークン
	var denylist middleware.TokenDenylist
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		denylist = cache.NewRedisTokenDenylist(rdb)
	}

	//イベント発行
	var publisher eventPublisher = broker.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = broker.NewKafkaPublisher(cfg.KafkaBrokers)
	}
	defer publisher.Close()

	cart := upstream.NewCartClient(cfg.CartServiceURL, cfg.UpstreamTimeout)
	catalog := upstream.NewCatalogClient(cfg.ProductServiceURL, cfg.UpstreamTimeout)

	currency, _ := model.ParseCurrency(cfg.SettlementCurrency)
	settings := usecase.OrderSettings{
		FanoutLimit: cfg.OrderFanoutLimit,
		Currency: usecase.CurrencyPolicy{
			Mode:       usecase.CurrencyMode(cfg.CurrencyPolicy),
			Settlement: currency,
		},
	}

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(
		orders,
		cart,
		catalog,
		validator.NewAddressValidator(),
		publisher,
		system.UUIDGenerator{},
		system.RealClock{},
		settings,
		log,
	)
	if cfg.OrderCheckoutSaga {
		orderUC.WithCheckoutSaga(cart)
	}

	//Handler生成
	e := server.New(cfg, log)
	server.RegisterOrderRoutes(e, cfg, denylist, handler.NewOrderHandler(orderUC))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx, e, cfg.ListenAddr(), log)
	})

	//決済完了の購読
	if len(cfg.KafkaBrokers) > 0 {
		groupID := cfg.KafkaGroupID
		if groupID == "" {
			groupID = "order-service"
		}
		payments := broker.NewConsumer(cfg.KafkaBrokers, groupID,
			[]string{string(model.EventPaymentCompleted)},
			consumer.NewPaymentHandler(orderUC, log), log)
		defer payments.Close()

		g.Go(func() error {
			return payments.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openOrderStore(ctx context.Context, cfg config.Config) (repo.OrderRepository, func(), error) {
	if cfg.OrderStore == "mongo" {
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.NewOrderStore(client.Database(cfg.MongoDB))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	}

	gormDB, err := db.Connect(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, nil, err
	}
	if err := db.MigrateOrders(gormDB); err != nil {
		_ = db.Close(gormDB)
		return nil, nil, err
	}
	return infraRepo.NewOrderGormRepository(gormDB), func() { _ = db.Close(gormDB) }, nil
}
