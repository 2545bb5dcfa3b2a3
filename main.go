package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"meeting-scheduler/api/pkg/clients/email"
	"meeting-scheduler/api/pkg/clients/llm"
	"meeting-scheduler/api/pkg/config"
	"meeting-scheduler/api/pkg/db"
	"meeting-scheduler/api/pkg/middleware"
	"meeting-scheduler/api/services/contacts"
	"meeting-scheduler/api/services/dashboard"
	"meeting-scheduler/api/services/rsvp"
	"meeting-scheduler/api/services/scheduler"
	"meeting-scheduler/api/services/storage"
)

const defaultConfigFile = "config.json"

func main() {
	ctx := context.Background()
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(logHandler))

	configPath := defaultConfigFile
	if p, ok := os.LookupEnv("CONFIG_FILE"); ok && p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		return
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open meeting log", "store", cfg.Store, "error", err)
		return
	}
	defer closeStore()

	mailer, err := newMailer(cfg)
	if err != nil {
		slog.Error("Failed to create mail client", "error", err)
		return
	}

	directory := contacts.NewDirectory(cfg.Contacts)
	extractor := llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, nil)

	inviteScheduler, err := scheduler.New(cfg, store, mailer, directory)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		return
	}

	rsvpService, err := rsvp.NewService(cfg, store, mailer)
	if err != nil {
		slog.Error("Failed to create rsvp service", "error", err)
		return
	}

	dashboardService, err := dashboard.NewService(store, extractor, inviteScheduler)
	if err != nil {
		slog.Error("Failed to create dashboard service", "error", err)
		return
	}

	// setup router
	mainRouter := mux.NewRouter()
	mainRouter.Use(middleware.RequestID)

	rsvpService.LoadRoutes(mainRouter)

	apiRouter := mainRouter.PathPrefix("/api/v1").Subrouter()
	dashboardService.LoadRoutes(apiRouter)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", middleware.RequestIDHeader}),
	)(mainRouter)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(corsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "rsvpBaseURL", scheduler.BaseURL(cfg))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
		}

	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Could not stop server gracefully", "error", err)
			srv.Close()
		}
	}
}

// openStore builds the configured meeting log backend and returns a
// function releasing its resources.
func openStore(ctx context.Context, cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewSQLiteStore(conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, func() { conn.Close() }, nil

	case config.StorePostgres:
		pool, err := db.ConnectPostgres(ctx, db.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewPgStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case config.StoreFile:
		store, err := storage.NewFileStore(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newMailer returns the SMTP client, or the logging stub when the stub
// transport is selected or SMTP credentials are missing. In the latter
// case scheduling still reports the missing credentials.
func newMailer(cfg *config.Config) (email.Client, error) {
	if cfg.MailTransport == config.TransportStub {
		return email.NewStubClient(cfg.SenderEmail), nil
	}
	if err := cfg.MailCredentials(); err != nil {
		slog.Warn("SMTP disabled", "error", err)
		return email.NewStubClient(cfg.SenderEmail), nil
	}
	return email.NewSMTPClient(email.SMTPConfig{
		Host:     cfg.SMTPServer,
		Port:     int(cfg.SMTPPort),
		Username: cfg.SenderEmail,
		Password: cfg.SenderPassword,
	})
}
