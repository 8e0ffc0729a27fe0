// Package server initializes and runs the vault application server. It opens
// the database, runs migrations, wires the feature services into the HTTP
// API, and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/config"
	"github.com/minkvault/mink/internal/server/httpapi"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/server/repomanager"
	"github.com/minkvault/mink/internal/server/users"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	handler := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(handler)

	db, rm, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	noteSvc := notes.NewService(rm.Notes(db), logger)
	bookmarkSvc := bookmarks.NewService(db, rm.Folders(db), rm.Bookmarks(db), logger)
	userSvc := users.NewService(db, rm.Users(db), rm.Notes(db), rm.Folders(db), rm.Bookmarks(db),
		cfg.EncryptionPepper, logger)

	api := httpapi.NewServer(userSvc, noteSvc, bookmarkSvc,
		[]byte(cfg.SecretKey), cfg.TokenValidity, logger)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// termination signal arrives, then drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return app.db.Close()
}
