package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"resume-review/internal/pipeline"
	"resume-review/internal/rasterize"
	"resume-review/internal/reviews"
	"resume-review/internal/scoring"
	"resume-review/internal/scoring/gemini"
	"resume-review/internal/scoring/openai"
	"resume-review/internal/shared/auth"
	"resume-review/internal/shared/config"
	"resume-review/internal/shared/server"
	"resume-review/internal/shared/storage/db"
	"resume-review/internal/shared/storage/object"
	localstore "resume-review/internal/shared/storage/object/local"
	s3store "resume-review/internal/shared/storage/object/s3"
	"resume-review/internal/shared/telemetry"
	"resume-review/internal/upload"
)

const remoteTokenTTL = 5 * time.Minute

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *redis.Client
	Store  object.ObjectStore

	ReviewsRepo     reviews.Repo
	ReviewsService  *reviews.Service
	Orchestrator    *pipeline.Orchestrator
	Runner          *pipeline.Runner
	ReviewHandler   *reviews.Handler
	AnalysisHandler *pipeline.Handler
}

// Build prepares dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()
	auth.Configure(cfg.JWTSecret, cfg.Env)

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := buildRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Redis:  rdb,
		Store:  store,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	deps := server.RouterDeps{
		Config:          cfg,
		ReviewHandler:   app.ReviewHandler,
		AnalysisHandler: app.AnalysisHandler,
	}
	if _, ok := store.(*localstore.Store); ok {
		deps.Assets = store
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.cache_disabled", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// BuildOracle selects the scoring oracle for cfg.ScoringProvider. The remote
// provider has no oracle; it scores through RemoteScorer instead.
func BuildOracle(ctx context.Context, cfg config.Config) (scoring.Oracle, error) {
	switch cfg.ScoringProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.ScoringModel, cfg.ScoringTimeout)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.ScoringModel, cfg.ScoringTimeout)
	case "none":
		return scoring.Placeholder{}, nil
	default:
		return nil, nil
	}
}

// BuildScorer returns the scorer used by the orchestrator.
func BuildScorer(cfg config.Config, svc *reviews.Service) (pipeline.Scorer, error) {
	if cfg.ScoringProvider != "remote" {
		return pipeline.LocalScorer{Service: svc}, nil
	}
	if cfg.ScoringEndpoint == "" {
		return nil, fmt.Errorf("SCORING_ENDPOINT is required for the remote scoring provider")
	}
	return pipeline.RemoteScorer{
		Client:    scoring.NewFeedbackClient(cfg.ScoringEndpoint, "", cfg.ScoringTimeout),
		SignToken: signUserToken,
	}, nil
}

func signUserToken(userID string) (string, error) {
	return auth.SignJWT(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(remoteTokenTTL)),
	}})
}

// BuildSink returns the upload sink for store. S3 stores without a public base
// URL hand out presigned URLs.
func BuildSink(cfg config.Config, store object.ObjectStore) *upload.StoreSink {
	baseURL := cfg.PublicAssetBaseURL
	if cfg.ObjectStoreType == "s3" {
		baseURL = cfg.S3PublicBaseURL
	}
	return upload.NewStoreSink(store, baseURL, cfg.MaxImageBytes)
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var repo reviews.Repo
	if app.DB != nil {
		repo = &reviews.PGRepo{DB: app.DB}
	} else {
		repo = reviews.NewMemoryRepo()
	}
	if app.Redis != nil {
		repo = reviews.NewCachedRepo(repo, app.Redis, cfg.ReviewCacheTTL)
	}

	oracle, err := BuildOracle(ctx, cfg)
	if err != nil {
		if !config.IsDevLike(cfg.Env) {
			return fmt.Errorf("scoring oracle: %w", err)
		}
		telemetry.Warn("bootstrap.oracle_placeholder", map[string]any{"provider": cfg.ScoringProvider, "error": err.Error()})
		oracle = scoring.Placeholder{}
	}
	svc := reviews.NewService(repo, oracle)

	scorer, err := BuildScorer(cfg, svc)
	if err != nil {
		return err
	}

	orch := &pipeline.Orchestrator{
		Rasterizer: rasterize.NewFitzRasterizer(cfg.RasterDPI),
		Sink:       BuildSink(cfg, app.Store),
		Scorer:     scorer,
	}
	runner := pipeline.NewRunner(orch, cfg.RunTTL)

	app.ReviewsRepo = repo
	app.ReviewsService = svc
	app.Orchestrator = orch
	app.Runner = runner
	app.ReviewHandler = reviews.NewHandler(svc)
	app.AnalysisHandler = pipeline.NewHandler(runner, cfg.MaxDocumentBytes)

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":            cfg.Env,
		"object_store":   cfg.ObjectStoreType,
		"scoring":        cfg.ScoringProvider,
		"database":       app.DB != nil,
		"review_cache":   app.Redis != nil,
		"max_doc_bytes":  cfg.MaxDocumentBytes,
		"max_img_bytes":  cfg.MaxImageBytes,
		"run_ttl_millis": cfg.RunTTL.Milliseconds(),
	})
	return nil
}
