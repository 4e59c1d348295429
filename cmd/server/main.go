package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/myc-roast/server-go/internal/config"
	"github.com/myc-roast/server-go/internal/database"
	"github.com/myc-roast/server-go/internal/email"
	"github.com/myc-roast/server-go/internal/handler"
	"github.com/myc-roast/server-go/internal/jobs"
	"github.com/myc-roast/server-go/internal/meet"
	"github.com/myc-roast/server-go/internal/middleware"
	"github.com/myc-roast/server-go/internal/monitoring"
	"github.com/myc-roast/server-go/internal/redis"
	"github.com/myc-roast/server-go/internal/repository"
	"github.com/myc-roast/server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewLiveSessionRepository(db.DB)
	entryRepo := repository.NewQueueEntryRepository(db.DB)
	meetingRepo := repository.NewMeetingRepository(db.DB)
	profileRepo := repository.NewProfileRepository(db.DB)

	rooms := meet.NewProvider(meet.Options{DailyAPIKey: cfg.DailyAPIKey})
	mail := email.NewSender(email.Options{ResendAPIKey: cfg.ResendAPIKey, From: cfg.EmailFrom})

	limitService := service.NewRequestLimitService(redisClient.Client)
	sessionService := service.NewLiveSessionService(db, sessionRepo, entryRepo, profileRepo, mail, cfg.OpsEmail)
	queueService := service.NewQueueService(sessionRepo, entryRepo, meetingRepo, profileRepo, rooms, mail)
	roastService := service.NewRoastService(meetingRepo, profileRepo, limitService, rooms, mail)
	matchingService := service.NewMatchingService(profileRepo, meetingRepo)

	rateLimiter := service.NewRateLimiter(redisClient.Client)

	authMiddleware := middleware.NewAuthMiddleware(profileRepo)
	cronAuthMiddleware := middleware.NewCronAuthMiddleware(cfg.CronSecret)
	userRateLimit := middleware.NewUserRateLimitMiddleware(rateLimiter, config.DefaultRateLimitPerMin)
	ipRateLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, 120, time.Minute, "api")

	sessionHandler := handler.NewLiveSessionHandler(sessionService)
	queueHandler := handler.NewLiveQueueHandler(queueService)
	roastHandler := handler.NewRoastHandler(roastService, matchingService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Handle("/metrics", monitoring.Handler())

	r.Route("/api/live-sessions", func(r chi.Router) {
		r.Use(ipRateLimit.Handler)
		r.Use(authMiddleware.Handler)
		r.Use(userRateLimit.Handler)
		r.Mount("/", sessionHandler.Routes())
	})

	r.Route("/api/live-queue", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cronAuthMiddleware.Handler)
			r.Post("/auto-skip", queueHandler.AutoSkip)
			r.Get("/auto-skip", queueHandler.AutoSkip)
		})

		r.Group(func(r chi.Router) {
			r.Use(ipRateLimit.Handler)
			r.Use(authMiddleware.Handler)
			r.Use(userRateLimit.Handler)
			r.Mount("/", queueHandler.Routes())
		})
	})

	r.Route("/api/roasts", func(r chi.Router) {
		r.Use(ipRateLimit.Handler)
		r.Use(authMiddleware.Handler)
		r.Use(userRateLimit.Handler)
		r.Mount("/", roastHandler.Routes())
	})

	sweeper := jobs.NewSweeperJob(queueService, sessionService, roastService, cfg.SweepInterval())
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
