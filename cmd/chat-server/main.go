package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gemini-chat/internal/auth"
	"gemini-chat/internal/chat"
	"gemini-chat/internal/config"
	"gemini-chat/internal/country"
	"gemini-chat/internal/events"
	"gemini-chat/internal/handler"
	"gemini-chat/internal/middleware"
	"gemini-chat/internal/observability"
	"gemini-chat/internal/reply"
	"gemini-chat/internal/storage"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting chat server")

	db, err := config.NewSQLiteConnection(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to sqlite", slog.String("path", cfg.DatabasePath))

	kv, err := storage.NewSQLiteKV(db)
	if err != nil {
		slog.Error("failed to initialize blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	adapter := storage.NewAdapter(kv)

	hub := events.NewHub()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go func() {
		if err := hub.Run(hubCtx); err != nil && err != context.Canceled {
			slog.Error("hub error", slog.String("error", err.Error()))
		}
	}()
	slog.Info("event hub started")

	generator := reply.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))

	store := chat.NewStore(adapter, generator, hub, chat.Delays{
		CreateRoom: cfg.CreateRoomDelay,
		ReplyMin:   cfg.ReplyMinDelay,
		ReplyMax:   cfg.ReplyMaxDelay,
		LoadMore:   cfg.LoadMoreDelay,
	})

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	store.Load(loadCtx)
	loadCancel()
	slog.Info("chat state hydrated", slog.Int("rooms", len(store.Rooms())))

	authService := auth.NewService(adapter, store, auth.Delays{
		SendOTP: cfg.SendOTPDelay,
		Verify:  cfg.VerifyDelay,
	})

	countryClient := country.NewClient(cfg.CountryAPIURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startSessionCleanup(ctx, authService)
	slog.Info("session cleanup task started")

	authHandler := handler.NewAuthHandler(authService)
	chatroomHandler := handler.NewChatroomHandler(store)
	countryHandler := handler.NewCountryHandler(countryClient)
	eventsHandler := handler.NewEventsHandler(hub)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(kv))
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.NewRateLimiter(ctx, 5, 10)
	apiLimiter := middleware.NewRateLimiter(ctx, 20, 50)

	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware())
		r.Post("/auth/otp", authHandler.SendOTP)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/signup", authHandler.Signup)
		r.Get("/countries", countryHandler.List)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authService))
		r.Use(middleware.CSRF())
		r.Use(apiLimiter.Middleware())

		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/chatrooms", chatroomHandler.List)
		r.Post("/chatrooms", chatroomHandler.Create)
		r.Delete("/chatrooms/{id}", chatroomHandler.Delete)
		r.Get("/chatrooms/{id}/messages", chatroomHandler.GetMessages)
		r.Post("/chatrooms/{id}/messages", chatroomHandler.SendMessage)
		r.Post("/chatrooms/{id}/messages/history", chatroomHandler.LoadHistory)
	})

	// CSRF is skipped for the websocket upgrade, auth still applies
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authService))
		r.Get("/ws/events", eventsHandler.HandleConnection)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("chat server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	hubCancel()

	time.Sleep(100 * time.Millisecond)

	slog.Info("server stopped gracefully")
}

// startSessionCleanup runs a background task to delete expired sessions
func startSessionCleanup(ctx context.Context, svc *auth.Service) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup task")
			return
		case <-ticker.C:
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
			count, err := svc.DeleteExpired(cleanupCtx)
			if err != nil {
				slog.Error("session cleanup failed", slog.String("error", err.Error()))
			} else {
				slog.Info("session cleanup completed",
					slog.Int64("sessions_deleted", count))
			}
			cleanupCancel()
		}
	}
}
