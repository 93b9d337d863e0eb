package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Gokul1734/Naticoco/internal/config"
	apphttp "github.com/Gokul1734/Naticoco/internal/http"
	"github.com/Gokul1734/Naticoco/internal/payment"
	"github.com/Gokul1734/Naticoco/internal/poller"
	"github.com/Gokul1734/Naticoco/internal/publisher"
	"github.com/Gokul1734/Naticoco/internal/repository"
	"github.com/Gokul1734/Naticoco/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize order store: %v", err)
	}
	defer repo.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
	}
	pingCancel()

	verifications := payment.NewRedisVerificationStore(redisClient, cfg.Gateway.VerificationTTL)
	verifier := payment.NewSignatureVerifier(cfg.Gateway.KeySecret)

	var gateway payment.Gateway
	if cfg.Gateway.BaseURL != "" {
		gateway = payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Timeout)
		log.Printf("using payment gateway at %s", cfg.Gateway.BaseURL)
	} else {
		gateway = payment.StubGateway{}
		log.Println("no GATEWAY_BASE_URL configured, using stub payment gateway")
	}

	var events publisher.EventPublisher
	if cfg.Kafka.Brokers != "" {
		kp := publisher.NewKafkaPublisher(strings.Split(cfg.Kafka.Brokers, ",")...)
		defer kp.Close()
		events = kp
		log.Printf("publishing order events to kafka brokers %s", cfg.Kafka.Brokers)
	} else {
		events = publisher.NoopPublisher{}
		log.Println("no KAFKA_BROKERS configured, order events disabled")
	}

	svc := service.NewOrderService(repo, verifications, events)

	stale := poller.NewStalePoller(repo, events, cfg.Staleness.PreparingAfter, cfg.Staleness.PollInterval)
	go stale.Run(ctx)

	ordersHandler := apphttp.NewOrdersHandler(svc, cfg.HTTP.RequestTimeout)
	paymentHandler := apphttp.NewPaymentHandler(gateway, verifier, verifications, cfg.HTTP.RequestTimeout)
	router := apphttp.NewRouter(ordersHandler, paymentHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "naticoco-orders"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("order service starting on :%s (store backend: %s)", cfg.HTTP.Port, cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server stopped")
}

func buildRepository(ctx context.Context, cfg *config.Config) (repository.OrderRepository, error) {
	switch cfg.Store.Backend {
	case "postgres":
		cred := &repository.Credentials{
			Host:              cfg.Store.PostgresHost,
			Port:              cfg.Store.PostgresPort,
			User:              cfg.Store.PostgresUser,
			Password:          cfg.Store.PostgresPass,
			DBName:            cfg.Store.PostgresDB,
			MigrationsDirPath: cfg.Store.MigrationsDir,
		}
		repo, err := repository.NewPostgresRepository(cred)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(cred); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := repository.ConnectMongo(connectCtx, cfg.Store.MongoURI)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoRepository(connectCtx, client, cfg.Store.MongoDB)
	default:
		log.Println("using in-memory order store, orders will not survive restarts")
		return repository.NewMemoryRepository(), nil
	}
}
