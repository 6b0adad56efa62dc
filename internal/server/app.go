// Package server wires the application together: configuration, database,
// migrations, event sink, services, and the HTTP API, plus graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/events"
	"github.com/dmitrijs2005/authkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	sink        events.Sink
	authService *services.AuthService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sink := newEventSink(cfg, logger)

	tokenService := services.NewOneTimeTokenService(db, rm)
	issuer := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	authService := services.NewAuthService(db, rm, tokenService, issuer, auth.NewBcryptHasher(), sink, logger, cfg)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		sink:        sink,
		authService: authService,
	}, nil
}

// newEventSink selects the event backend: Kafka when brokers are
// configured, the structured log otherwise.
func newEventSink(cfg *config.Config, logger logging.Logger) events.Sink {
	if cfg.KafkaBrokers == "" {
		return events.NewLogSink(logger)
	}
	return events.NewKafkaSink(strings.Split(cfg.KafkaBrokers, ","))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	handler := httpapi.NewHandler(app.authService, app.logger)
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, handler)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.sink.Close(); err != nil {
		app.logger.Error(ctx, "event sink close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
