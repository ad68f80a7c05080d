package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/heistledger/internal/config"
	"github.com/GlebRadaev/heistledger/internal/handlers"
	"github.com/GlebRadaev/heistledger/internal/payout"
	"github.com/GlebRadaev/heistledger/internal/pg"
	"github.com/GlebRadaev/heistledger/internal/repo"
	"github.com/GlebRadaev/heistledger/internal/service"
	"github.com/GlebRadaev/heistledger/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg       *config.Config
	api       *handlers.Handlers
	srv       *service.Services
	repo      *repo.Repositories
	pool      *pgxpool.Pool
	workers   *payout.WorkerPool
	scheduler *payout.Scheduler

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("can't load config: %w", err)
	}
	return a.start(ctx, cfg)
}

func (a *Application) start(ctx context.Context, cfg *config.Config) error {
	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	a.pool = pool
	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	conn := pg.New(pool)
	a.cfg = cfg
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(a.repo, cfg)
	a.api = handlers.New(a.srv)

	a.workers = payout.NewWorkerPool(cfg.PayoutWorkers)
	engine := payout.NewEngine(a.repo.InvestmentRepo, a.repo.PayoutRepo, a.repo.TransactionRepo, txManager, cfg.Backfill, a.workers)
	a.scheduler, err = payout.NewScheduler(engine, cfg.PayoutInterval)
	if err != nil {
		return fmt.Errorf("can't build payout scheduler: %w", err)
	}

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	if err = a.startPayoutScheduler(ctx); err != nil {
		return fmt.Errorf("can't start payout scheduler: %w", err)
	}

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.String("backfill", string(cfg.Backfill)),
		zap.String("referralPolicy", string(cfg.ReferralPolicy)),
	)
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Error("http server shutdown failed", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// startPayoutScheduler must run after migrations.
func (a *Application) startPayoutScheduler(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		if err := a.scheduler.Shutdown(); err != nil {
			zap.L().Error("payout scheduler shutdown failed", zap.Error(err))
		}
		a.workers.Close()
	}()
	return nil
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	if a.pool != nil {
		a.pool.Close()
	}
	return appErr
}
