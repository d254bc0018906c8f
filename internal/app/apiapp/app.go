package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/config"
	"github.com/OzanD26/halk-habercisi/internal/infra/httpclient"
	"github.com/OzanD26/halk-habercisi/internal/jobs/cleanup"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
	redrepo "github.com/OzanD26/halk-habercisi/internal/repo/redis"
	feedsvc "github.com/OzanD26/halk-habercisi/internal/services/feed"
	mediasvc "github.com/OzanD26/halk-habercisi/internal/services/media"
	modsvc "github.com/OzanD26/halk-habercisi/internal/services/moderation"
	"github.com/OzanD26/halk-habercisi/internal/services/progress"
	reportsvc "github.com/OzanD26/halk-habercisi/internal/services/report"
	uploadsvc "github.com/OzanD26/halk-habercisi/internal/services/upload"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	cleanupJob *cleanup.Job
	stopJobs   context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	reportRepo := pgrepo.NewReportRepo(pool)
	feedEvents := redrepo.NewFeedEventsRepo(redisClient)

	blobClient, err := uploadsvc.NewRESTClient(uploadsvc.Config{
		Host:   cfg.Storage.Host,
		Bucket: cfg.Storage.Bucket,
		UseSSL: cfg.Storage.UseSSL,
	}, httpclient.New(cfg.Storage.Timeout), log)
	if err != nil {
		return nil, fmt.Errorf("init blob store client: %w", err)
	}

	uploadManager := uploadsvc.NewManager(blobClient, log)

	reportService := reportsvc.NewService(uploadManager, blobClient, reportRepo, log)
	reportService.AttachProgress(progress.Config{
		Ceiling:      cfg.Upload.Progress.Ceiling,
		Rate:         cfg.Upload.Progress.Rate,
		MinStep:      cfg.Upload.Progress.MinStep,
		TickInterval: cfg.Upload.Progress.TickInterval,
	})
	reportService.AttachCleanup(blobClient)
	reportService.AttachPublisher(feedEvents)

	moderationService := modsvc.NewService(reportRepo, log)
	moderationService.AttachCleanup(blobClient)
	moderationService.AttachPublisher(feedEvents)

	mediaResolver := mediasvc.NewResolver(blobClient, log)
	liveStore := feedsvc.NewLiveStore(reportRepo, feedEvents, log)

	cleanupJob := cleanup.NewStaleReportJob(reportRepo, blobClient, cfg.Cleanup.Retention, log)
	cleanupJob.AttachPublisher(feedEvents)

	RegisterRoutes(r, Dependencies{
		ReportService:     reportService,
		ModerationService: moderationService,
		MediaResolver:     mediaResolver,
		FeedStore:         liveStore,
		Logger:            log,
		Config:            cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		cleanupJob: cleanupJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	if a.cleanupJob != nil && a.cfg.Cleanup.Interval > 0 {
		jobCtx, cancel := context.WithCancel(context.Background())
		a.stopJobs = cancel
		go a.cleanupJob.RunPeriodically(jobCtx, a.cfg.Cleanup.Interval)
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.stopJobs != nil {
		a.stopJobs()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
