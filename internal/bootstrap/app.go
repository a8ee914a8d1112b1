package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/entities"
	"recommendation-backend/internal/letters"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/llm/anthropic"
	"recommendation-backend/internal/llm/gemini"
	"recommendation-backend/internal/llm/openai"
	"recommendation-backend/internal/research"
	"recommendation-backend/internal/resumes"
	"recommendation-backend/internal/selections"
	"recommendation-backend/internal/services/health"
	"recommendation-backend/internal/shared/config"
	"recommendation-backend/internal/shared/metrics"
	"recommendation-backend/internal/shared/server"
	"recommendation-backend/internal/shared/storage/db"
	"recommendation-backend/internal/shared/storage/gateway"
	"recommendation-backend/internal/shared/storage/object"
	localstore "recommendation-backend/internal/shared/storage/object/local"
	miniostore "recommendation-backend/internal/shared/storage/object/minio"
	s3store "recommendation-backend/internal/shared/storage/object/s3"
)

// Options override parts of the wiring. Zero values select the configured defaults.
type Options struct {
	Logger   *zap.Logger
	Reasoner llm.Reasoner
	Embedder llm.Embedder
	Store    object.ObjectStore
}

// App holds shared dependencies and the HTTP router.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Router  *gin.Engine
	Metrics *metrics.Recorder

	DB   *sql.DB
	Pool *pgxpool.Pool

	Store   object.ObjectStore
	Context *contextstore.Service

	Resumes    *resumes.Service
	Entities   *entities.Service
	Selections *selections.Service
	Research   *research.Service
	Letters    *letters.Service
}

// Build wires every service and mounts the routes.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	if err := app.buildDB(ctx); err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = buildStore(ctx, cfg); err != nil {
			app.Close()
			return nil, err
		}
	}
	app.Store = store

	reasoner := opts.Reasoner
	if reasoner == nil {
		completer, err := buildCompleter(ctx, cfg, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		reasoner = llm.NewService(llm.WithTimeout(completer, cfg.LLMTimeout), logger)
	}

	embedder := opts.Embedder
	if embedder == nil {
		embedder = buildEmbedder(cfg, logger)
	}

	index, err := app.buildIndex(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	splitter, err := contextstore.NewRecursiveSplitter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Context = contextstore.NewService(index, embedder, splitter, contextstore.Options{
		RefreshBound: cfg.ContextRefreshBound,
	}, logger)

	app.buildServices(reasoner)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		Logger:     logger,
		Metrics:    app.Metrics,
		Health:     app.health(),
		Resumes:    resumes.NewHandler(app.Resumes),
		Entities:   entities.NewHandler(app.Entities, app.Selections),
		Context:    contextstore.NewHandler(app.Context),
		Selections: selections.NewHandler(app.Selections),
		Research:   research.NewHandler(app.Research),
		Letters:    letters.NewHandler(app.Letters),
	})
	return app, nil
}

// Close releases database pools.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func (a *App) buildDB(ctx context.Context) error {
	cfg := a.Config
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			a.Logger.Warn("DATABASE_URL empty; using in-memory repositories")
			return nil
		}
		return errors.New("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions(), a.Logger)
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts, a.Logger)
	if err != nil {
		if cfg.IsDevLike() {
			a.Logger.Warn("database connect failed; using in-memory repositories", zap.Error(err))
			return nil
		}
		return err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	a.DB = sqlDB
	return nil
}

func (a *App) buildIndex(ctx context.Context) (contextstore.Index, error) {
	cfg := a.Config
	if cfg.VectorStore != "pgvector" || a.DB == nil {
		if cfg.VectorStore == "pgvector" {
			a.Logger.Warn("pgvector requested without a database; using in-memory index")
		}
		return contextstore.NewMemoryIndex(), nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("vector pool: %w", err)
	}
	a.Pool = pool
	index := contextstore.NewPGVectorIndex(pool, a.Logger)
	if err := index.EnsureSchema(ctx, cfg.EmbeddingDim); err != nil {
		return nil, fmt.Errorf("vector schema: %w", err)
	}
	return index, nil
}

func (a *App) buildServices(reasoner llm.Reasoner) {
	cfg := a.Config
	var gdb *gorm.DB
	if a.DB != nil {
		var err error
		if gdb, err = db.OpenGorm(a.DB); err != nil {
			a.Logger.Warn("gorm unavailable; using in-memory repositories", zap.Error(err))
			gdb = nil
		}
	}

	// Validate already checked the namespace.
	namespace := uuid.MustParse(cfg.FileUUIDNamespace)

	a.Resumes = &resumes.Service{
		Store:             a.Store,
		Repo:              repo[resumes.Resume](gdb),
		Namespace:         namespace,
		AllowedExtensions: cfg.AllowedExtensions,
		MaxSizeBytes:      cfg.MaxFileSizeBytes(),
		Metrics:           a.Metrics,
		Logger:            a.Logger,
	}
	a.Entities = &entities.Service{
		Repo:     repo[entities.Record](gdb),
		Resumes:  a.Resumes,
		Store:    a.Store,
		Reasoner: reasoner,
		Context:  a.Context,
		Language: cfg.NERLanguage,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	}
	a.Selections = &selections.Service{
		Repo:   repo[selections.Selection](gdb),
		Logger: a.Logger,
	}
	a.Research = &research.Service{
		Repo:        repo[research.Research](gdb),
		Selections:  a.Selections,
		Reasoner:    reasoner,
		Context:     a.Context,
		ResultLimit: cfg.ResearchResultLimit,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
	}
	a.Selections.Research = a.Research
	a.Letters = &letters.Service{
		Repo:     repo[letters.Letter](gdb),
		Store:    a.Store,
		Facts:    a.Entities,
		Research: a.Research,
		Context:  a.Context,
		Reasoner: reasoner,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	}

	contextPurger := resumes.PurgerFunc(func(ctx context.Context, id uuid.UUID) error {
		return a.Context.DeleteSubject(ctx, id.String())
	})
	// children before parents, mirroring the foreign keys
	a.Resumes.Dependents = []resumes.Purger{a.Research, a.Selections, a.Entities, a.Letters, contextPurger}
}

func (a *App) health() *health.Service {
	checks := map[string]health.Pinger{}
	if a.DB != nil {
		checks["database"] = health.PingFunc(a.DB.PingContext)
	}
	if a.Pool != nil {
		checks["vector_store"] = a.Pool
	}
	return health.NewService(checks)
}

func repo[T any, PT gateway.RecordPtr[T]](gdb *gorm.DB) gateway.Gateway[T, PT] {
	if gdb == nil {
		return gateway.NewMemory[T, PT]()
	}
	return gateway.NewGorm[T, PT](gdb)
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(miniostore.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCompleter(ctx context.Context, cfg config.Config, logger *zap.Logger) (llm.Completer, error) {
	var (
		completer llm.Completer
		err       error
	)
	switch cfg.LLMProvider {
	case "openai":
		completer, err = openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.LLMModel,
		})
	case "gemini":
		completer, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	case "anthropic":
		completer, err = anthropic.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel)
	default:
		return llm.Disabled{}, nil
	}
	if err != nil {
		if cfg.IsDevLike() {
			logger.Warn("llm provider unavailable; reasoning calls will fail",
				zap.String("provider", cfg.LLMProvider), zap.Error(err))
			return llm.Disabled{}, nil
		}
		return nil, fmt.Errorf("llm provider %s: %w", cfg.LLMProvider, err)
	}
	logger.Info("llm provider ready", zap.String("provider", cfg.LLMProvider), zap.String("model", completer.Model()))
	return completer, nil
}

func buildEmbedder(cfg config.Config, logger *zap.Logger) llm.Embedder {
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := openai.NewClient(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		if err == nil {
			return client
		}
		logger.Warn("openai embedder unavailable", zap.Error(err))
	}
	logger.Info("using hash embedder", zap.Int("dim", cfg.EmbeddingDim))
	return contextstore.HashEmbedder{Dim: cfg.EmbeddingDim}
}
