// Package server initializes and runs the HashEnv server.
// It loads the master key, selects the storage backend, wires the services
// and starts the HTTP API, shutting down gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/access"
	"github.com/dmitrijs2005/hashenv/internal/server/config"
	"github.com/dmitrijs2005/hashenv/internal/server/httpserver"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/objectstore"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/memory"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hashenv/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	db       *sql.DB
	services httpserver.Services
}

// seams for tests
var (
	openPostgres   = repomanager.OpenPostgres
	newObjectStore = objectstore.New
)

// NewApp fails fast when the master key is missing or malformed, before any
// storage is opened.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	key, err := c.MasterKeyBytes()
	if err != nil {
		return nil, err
	}
	cipher, err := cryptox.NewCipher(key, cryptox.Algorithm(c.CipherAlgorithm))
	common.WipeByteArray(key)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, metrics: metrics.New()}

	var (
		rm   repomanager.RepositoryManager
		conn dbx.Conn
	)
	if c.DatabaseDSN == config.MemoryDSN {
		logger.Warn(ctx, "using in-memory store, data will not survive a restart")
		rm = memory.New()
		conn = memory.Conn{}
	} else {
		db, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		app.db = db
		conn = dbx.NewSQLConn(db)
	}

	var backups services.BackupStore
	if c.S3Enabled {
		store, err := newObjectStore(ctx, c.ObjectStore())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("object store init error: %w", err)
		}
		backups = store
	}

	ev := access.NewEvaluator(conn, rm)
	audit := services.NewAuditService(conn, rm, logger, app.metrics, c.AuditQueryLimit)
	panicConfigs := services.NewPanicConfigService(conn, rm, c)

	app.services = httpserver.Services{
		Access:       ev,
		Users:        services.NewUserService(conn, rm),
		Projects:     services.NewProjectService(conn, rm, ev, logger),
		EnvFiles:     services.NewEnvFileService(conn, rm, cipher, audit, logger, app.metrics, c),
		Secrets:      services.NewSecretService(conn, rm, cipher, audit, logger, app.metrics),
		Audit:        audit,
		PanicConfigs: panicConfigs,
		Panic:        services.NewPanicService(conn, rm, panicConfigs, cipher, audit, backups, logger, app.metrics, c),
	}

	logger.Info(ctx, "master key loaded", "algorithm", cipher.Algorithm())

	return app, nil
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
	s := httpserver.NewHTTPServer(app.config.HTTPAddr, app.logger, app.metrics, app.services, app.config.JWTSecret)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() {
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}
