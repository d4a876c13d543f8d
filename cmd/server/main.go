package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"skillnest/internal/chat"
	"skillnest/internal/config"
	"skillnest/internal/db"
	"skillnest/internal/kafka"
	"skillnest/internal/metrics"
	myMiddleware "skillnest/internal/middleware"
	"skillnest/internal/notification"
	"skillnest/internal/portfolio"
	"skillnest/internal/post"
	"skillnest/internal/search"
	"skillnest/internal/user"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warn("unknown log level, keeping info", "level", cfg.LogLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.NewDatabase(cfg.DSN)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", "err", err)
	}
	defer database.Close()
	log.Info("connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatal("migration failed", "err", err)
	}
	log.Info("database schema initialized")

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			log.Fatal("failed to connect to Redis", "addr", cfg.RedisAddr, "err", err)
		}
		defer redisClient.Close()
		log.Info("connected to Redis", "addr", cfg.RedisAddr)
	} else {
		log.Info("Redis disabled, delivering to local connections only")
	}

	var events chat.EventPublisher
	if cfg.KafkaAddrs != "" {
		w := kafka.NewWriter(cfg.KafkaAddrs, cfg.KafkaTopic, func(err error) {
			log.Warn("kafka write failed", "topic", cfg.KafkaTopic, "err", err)
		})
		defer w.Close()
		events = w
		log.Info("publishing message events", "brokers", cfg.KafkaAddrs, "topic", cfg.KafkaTopic)
	}

	hub := chat.NewHub(redisClient)
	go hub.Run(ctx)
	if redisClient != nil {
		go hub.SubscribeToRedis(ctx)
	}

	userService := user.NewService(user.NewRepository(database.Conn), cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	chatService := chat.NewService(chat.NewRepository(database.Conn), events)
	chatHandler := chat.NewHandler(hub, chatService, chat.NewDispatcher(hub))

	notificationService := notification.NewService(notification.NewRepository(database.Conn), hub)
	notificationHandler := notification.NewHandler(notificationService)

	postService := post.NewService(post.NewRepository(database.Conn), userService, notificationService)
	postHandler := post.NewHandler(postService)

	searchService := search.NewService(search.NewRepository(database.Conn))
	searchHandler := search.NewHandler(searchService)
	// Profile edits refresh the member directory; a failed sync is only logged.
	userService.OnProfileChange(func(ctx context.Context, u *user.User) {
		m := &search.Member{
			ID:           u.ID,
			FullName:     u.Name,
			Country:      u.Country,
			Institution:  u.Institution,
			FieldOfStudy: u.FieldOfStudy,
			Skills:       u.Skills,
			Internship:   u.Internship,
		}
		if _, err := searchService.Upsert(ctx, m); err != nil {
			log.Warn("member directory not updated", "user", u.ID, "err", err)
		}
	})

	portfolioHandler := portfolio.NewHandler(portfolio.NewService(portfolio.NewRepository(database.Conn)))

	authMiddleware := myMiddleware.NewAuthMiddleware(userService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	userHandler.PublicRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		userHandler.Routes(r)
		chatHandler.Routes(r)
		notificationHandler.Routes(r)
		postHandler.Routes(r)
		searchHandler.Routes(r)
		portfolioHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	cancel()
}
