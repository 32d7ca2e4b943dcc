// Package server initializes and runs the xthevent server: it opens the
// database, optionally applies migrations, builds the services and runs the
// HTTP API and the gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/dependencies/clock"
	"github.com/nulldatamap/xthevent/internal/logging"
	"github.com/nulldatamap/xthevent/internal/server/config"
	"github.com/nulldatamap/xthevent/internal/server/httpapi"
	"github.com/nulldatamap/xthevent/internal/server/repositories/repomanager"
	"github.com/nulldatamap/xthevent/internal/server/services"

	gs "github.com/nulldatamap/xthevent/internal/server/grpc"
)

var openDB = repomanager.Open

type App struct {
	config              *config.Config
	logger              logging.Logger
	db                  *sql.DB
	retry               dbx.RetryPolicy
	sessionService      *services.SessionService
	registrationService *services.RegistrationService
	rosterService       *services.RosterService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSON(os.Stdout, level)

	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	retry := dbx.DefaultRetryPolicy()

	db, err := openDB(ctx, c.DatabaseDSN, retry)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	if c.InitDB {
		logger.Info(ctx, "Applying migrations...")
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	clk := clock.New()
	ss := services.NewSessionService(db, rm, clk, logger, c)
	rs := services.NewRegistrationService(db, rm, clk, services.NewLogNotifier(logger), logger, c)
	es := services.NewRosterService(db, rm, logger, c)

	return &App{
		config:              c,
		logger:              logger,
		db:                  db,
		retry:               retry,
		sessionService:      ss,
		registrationService: rs,
		rosterService:       es,
	}, nil
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

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:            app.logger,
		Sessions:          app.sessionService,
		Registrations:     app.registrationService,
		Roster:            app.rosterService,
		Retry:             app.retry,
		AuthRatePerMinute: app.config.AuthRatePerMinute,
		AuthBurst:         app.config.AuthBurst,
	})
	s := httpapi.NewServer(router, httpapi.DefaultServerConfig(app.config.EndpointAddrHTTP), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, app.config.HealthCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or one of the
// servers fails. The database is closed once both servers have stopped.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing db", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
