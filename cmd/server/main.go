// Package main initializes and starts the contact server, setting up
// configuration, logging, the database, repositories, services, handlers
// and the expired share cleaner.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/config"
	"github.com/atinyakov/ContactKeeper/internal/db"
	"github.com/atinyakov/ContactKeeper/internal/logger"
	"github.com/atinyakov/ContactKeeper/internal/repository"
	"github.com/atinyakov/ContactKeeper/internal/server/handler/http"
	"github.com/atinyakov/ContactKeeper/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, environment and file configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the database and apply migrations.
	conn, err := db.Init(ctx, options.DatabaseDriver, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()

	// Initialize repositories.
	accountRepo := repository.NewAccountRepository(conn)
	contactRepo := repository.NewContactRepository(conn)
	shareRepo := repository.NewShareRepository(conn)

	// Initialize business-logic services.
	secret := []byte(options.TokenSecret)
	authService := service.NewAuthService(accountRepo, secret, options.TokenTTL)
	contactService := service.NewContactService(contactRepo, accountRepo, zapLogger)
	shareService := service.NewShareService(shareRepo, contactRepo, zapLogger)

	// Remove expired and revoked share grants in the background.
	cleaner := db.StartExpiredShareCleaner(ctx, shareService, options.SweepInterval, zapLogger)
	defer cleaner.Stop()

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService}
	contactHandler := &http.ContactHandler{ContactService: contactService, Log: zapLogger}
	shareHandler := &http.ShareHandler{ShareService: shareService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, contactHandler, shareHandler, secret, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS {
		// Load server TLS certificate and key.
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server", zap.String("addr", options.Port), zap.Bool("tls", useTLS))
		if useTLS {
			errCh <- server.ListenAndServeTLS("", "")
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
