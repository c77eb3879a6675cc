// Package app assembles the ad insights runtime from configuration: the
// database, Redis, AWS clients, services, worker pool and scheduler.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ad-insights/internal/ai"
	"github.com/ignite/ad-insights/internal/api"
	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/imaging"
	"github.com/ignite/ad-insights/internal/metaads"
	"github.com/ignite/ad-insights/internal/metrics"
	patternengine "github.com/ignite/ad-insights/internal/pattern"
	"github.com/ignite/ad-insights/internal/pkg/distlock"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/repository/postgres"
	"github.com/ignite/ad-insights/internal/runlog"
	scoringengine "github.com/ignite/ad-insights/internal/scoring"
	"github.com/ignite/ad-insights/internal/service/ads"
	"github.com/ignite/ad-insights/internal/service/analysis"
	"github.com/ignite/ad-insights/internal/service/collection"
	"github.com/ignite/ad-insights/internal/service/monitoring"
	"github.com/ignite/ad-insights/internal/service/pattern"
	"github.com/ignite/ad-insights/internal/service/scoring"
	"github.com/ignite/ad-insights/internal/storage"
	"github.com/ignite/ad-insights/internal/worker"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// App holds every long-lived component.
type App struct {
	Config *config.Config

	DB      *sql.DB
	Redis   *redis.Client
	S3      *s3.Client
	Ledger  *storage.RunLedger
	Metrics *metrics.Metrics

	Pool      *worker.Pool
	Scheduler *worker.Scheduler
	Recompute *worker.Recompute

	Scoring    *scoring.Service
	Patterns   *pattern.Service
	Ads        *ads.Service
	Collection *collection.Service
	Analysis   *analysis.Service
	Monitoring *monitoring.Service
}

// New connects to the backing stores and builds the services. Postgres is
// required; Redis, S3, DynamoDB and Bedrock are optional.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New()}

	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Redis = openRedis(ctx, cfg.Redis)

	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	recorders := runlog.Multi{a.Metrics}
	if cfg.DynamoDB.RunLedgerTable != "" {
		a.Ledger = storage.NewRunLedger(storage.NewDynamoClient(awsCfg), cfg.DynamoDB)
		recorders = append(recorders, a.Ledger)
		logger.Info("[app] run ledger enabled", "table", cfg.DynamoDB.RunLedgerTable)
	}

	guard := distlock.NewGuard(distlock.NewFactory(a.Redis, db, cfg.Scoring.LockTTL()))

	a.Pool = worker.NewPool(cfg.Worker, a.Metrics)
	a.Scheduler = worker.NewScheduler(time.UTC)

	library := metaads.NewClient(cfg.Meta)
	if a.Redis != nil {
		library.SetLimiter(worker.NewRateLimiter(a.Redis, "meta-ads", cfg.Meta.RequestsPerMinute, cfg.Meta.RequestsPerHour))
	}
	processor := imaging.NewProcessor(cfg.Imaging)

	collectOpts := []collection.Option{
		collection.WithImageProcessor(processor),
		collection.WithRecorder(recorders),
	}
	var creatives *storage.CreativeStore
	if cfg.S3.Enabled() {
		a.S3 = storage.NewS3Client(awsCfg)
		creatives = storage.NewCreativeStore(a.S3, cfg.S3)
		collectOpts = append(collectOpts, collection.WithCreativeStore(creatives))
	}

	a.Scoring = scoring.NewService(postgres.NewScoringRepo(db),
		scoring.WithEngine(scoringengine.NewEngine(scoringengine.Weights{
			Duration:    cfg.Scoring.DurationWeight,
			Impressions: cfg.Scoring.ImpressionsWeight,
		}, cfg.Scoring.SuccessPercentile)),
		scoring.WithGuard(guard),
		scoring.WithRecorder(recorders))

	patternOpts := []pattern.Option{
		pattern.WithEngine(patternengine.NewEngine(cfg.Pattern.MinSupport, cfg.Pattern.LiftThreshold)),
		pattern.WithGuard(guard),
		pattern.WithRecorder(recorders),
		pattern.WithTopPatterns(cfg.Pattern.TopPatterns),
	}

	a.Ads = ads.NewService(postgres.NewAdsRepo(db))
	a.Collection = collection.NewService(postgres.NewCollectionRepo(db), library, a.Pool, collectOpts...)

	if cfg.Bedrock.Enabled {
		client := ai.NewBedrockClient(awsCfg, cfg.Bedrock.ModelID, cfg.Bedrock.MaxTokens)
		client.SetTimeout(cfg.Bedrock.Timeout())
		patternOpts = append(patternOpts, pattern.WithSummarizer(ai.NewSummarizer(client)))

		var objects imaging.ObjectReader
		if creatives != nil {
			objects = creatives
		}
		a.Analysis = analysis.NewService(postgres.NewAnalysisRepo(db), ai.NewAnalyzer(client),
			imaging.NewLoader(objects, library, processor), a.Pool,
			analysis.WithRecorder(recorders))
	} else {
		logger.Warn("[app] bedrock disabled, analysis and formula generation unavailable")
	}
	a.Patterns = pattern.NewService(postgres.NewPatternRepo(db), patternOpts...)

	monitorOpts := []monitoring.Option{
		monitoring.WithGuard(guard),
		monitoring.WithRecorder(recorders),
	}
	if cfg.Schedule.MonitoringEnabled {
		monitorOpts = append(monitorOpts, monitoring.WithScheduler(a.Scheduler))
	}
	a.Monitoring = monitoring.NewService(postgres.NewMonitoringRepo(db), a.Collection, a.Pool, monitorOpts...)

	a.Recompute = worker.NewRecompute(a.Scoring, a.Patterns)
	return a, nil
}

// Start launches the pool and the scheduler with its recurring jobs.
func (a *App) Start(ctx context.Context) error {
	if err := a.Pool.Start(); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}
	if a.Config.Schedule.MonitoringEnabled {
		n, err := a.Monitoring.SyncSchedules(ctx)
		if err != nil {
			return fmt.Errorf("sync monitoring schedules: %w", err)
		}
		logger.Info("[app] monitoring keywords scheduled", "count", n)
	}
	if err := worker.ScheduleRecompute(a.Scheduler, a.Config.Schedule.RecomputeCron, a.Recompute); err != nil {
		return fmt.Errorf("schedule recompute: %w", err)
	}
	a.Scheduler.Start()
	return nil
}

// Handlers exposes the services to the API. Analysis is left nil when
// Bedrock is disabled so its routes are not registered.
func (a *App) Handlers() *api.Handlers {
	h := &api.Handlers{
		Scoring:    a.Scoring,
		Patterns:   a.Patterns,
		Ads:        a.Ads,
		Collection: a.Collection,
		Monitoring: a.Monitoring,
	}
	if a.Analysis != nil {
		h.Analysis = a.Analysis
	}
	if a.Ledger != nil {
		h.Runs = a.Ledger
	}
	return h
}

// HealthChecker reports on the app's dependencies.
func (a *App) HealthChecker() *api.HealthChecker {
	var (
		rdb redis.UniversalClient
		s3c api.BucketHeader
	)
	if a.Redis != nil {
		rdb = a.Redis
	}
	if a.S3 != nil {
		s3c = a.S3
	}
	return api.NewHealthChecker(a.DB, rdb, s3c, a.Config.S3.Bucket, a.Pool, Version)
}

// Shutdown stops scheduling, drains the pool and closes connections.
func (a *App) Shutdown(ctx context.Context) {
	a.Scheduler.Stop(ctx)
	a.Pool.Stop(ctx)
	a.Close()
}

// Close releases the connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			logger.Warn("[app] redis close failed", "error", err)
		}
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("[app] connected to database")
	return db, nil
}

// openRedis returns nil when Redis is unconfigured or unreachable; locks
// then fall back to PostgreSQL advisory locks.
func openRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("[app] redis unreachable, using PG advisory locks", "addr", cfg.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("[app] connected to redis", "addr", cfg.Addr)
	return client
}
