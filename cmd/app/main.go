package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airassist/api"
	"github.com/Domenick1991/airassist/config"
	"github.com/Domenick1991/airassist/internal/bootstrap"
	"github.com/Domenick1991/airassist/internal/cache"
	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/chat"
	"github.com/Domenick1991/airassist/internal/kafka"
	"github.com/Domenick1991/airassist/internal/logger"
	"github.com/Domenick1991/airassist/internal/redirect"
	"github.com/Domenick1991/airassist/internal/repository"
	"github.com/Domenick1991/airassist/internal/service/booking"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
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

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "airassist"})
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flightRepo, bookingRepo, closeStorage := openStorage(ctx, cfg, log)
	defer closeStorage()

	var (
		flightCache flights.FlightCache
		sessions    chat.SessionStore = chat.NewMemoryStore(cfg.Chat.SessionTTL())
	)
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second, cfg.Chat.SessionTTL())
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatal("connect redis", "addr", cfg.Redis.Addr, "error", err)
		}
		flightCache = redisCache
		sessions = redisCache.Sessions()
	}

	links, err := redirect.NewBuilder(cfg.Booking.RedirectBaseURL)
	if err != nil {
		log.Fatal("redirect base url", "error", err)
	}

	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(log.With("component", "booking"))}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log.With("component", "kafka"))
		defer producer.Close()
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
			booking.WithPublishRetries(cfg.Kafka.PublishRetries),
		)
	}

	flightService := flights.NewFlightService(flightRepo, flightCache, log.With("component", "flights"))
	bookingService := booking.NewBookingService(bookingRepo, links, bookingOpts...)

	if cfg.Booking.SeedDemo {
		if err := booking.Seed(ctx, bookingRepo, booking.DemoBookings()); err != nil {
			log.Fatal("seed demo bookings", "error", err)
		}
	}

	loc, err := cfg.Chat.Location()
	if err != nil {
		log.Fatal("chat time zone", "error", err)
	}
	chatService := chat.NewChatService(flightService, bookingService, sessions,
		chat.WithTypingDelay(cfg.Chat.TypingDelay()),
		chat.WithLocation(loc),
		chat.WithLogger(log.With("component", "chat")),
	)

	router := api.NewRouter(flightService, bookingService, chatService, log.With("component", "http"))
	if err := bootstrap.Run(ctx, cfg, router, log); err != nil {
		log.Fatal("server error", "error", err)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.FlightRepository, repository.BookingRepository, func()) {
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Info("using in-memory storage")
		return repository.NewMemoryFlightRepository(), repository.NewMemoryBookingRepository(), func() {}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("connect postgres", "error", err)
	}
	if err := repository.Migrate(ctx, pool, catalog.Flights()); err != nil {
		pool.Close()
		log.Fatal("migrate postgres", "error", err)
	}

	log.Info("using postgres storage", "host", cfg.Database.Host, "db", cfg.Database.Name)
	return repository.NewFlightRepository(pool), repository.NewBookingRepository(pool), pool.Close
}
