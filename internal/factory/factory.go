package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/triviaduel/internal/api/response"
	"github.com/mcoot/triviaduel/internal/dependencies/clock"
	"github.com/mcoot/triviaduel/internal/dependencies/random"
	"github.com/mcoot/triviaduel/internal/jobs"
	"github.com/mcoot/triviaduel/internal/notify"
	"github.com/mcoot/triviaduel/internal/realtime"
	"github.com/mcoot/triviaduel/internal/services/match"
	"github.com/mcoot/triviaduel/internal/services/questions"
	"github.com/mcoot/triviaduel/internal/services/results"
	"github.com/mcoot/triviaduel/internal/services/scoring"
	"github.com/mcoot/triviaduel/internal/storage"
	"github.com/mcoot/triviaduel/internal/storage/memory"
	mongostorage "github.com/mcoot/triviaduel/internal/storage/mongo"
	redisstorage "github.com/mcoot/triviaduel/internal/storage/redis"
	sqlstorage "github.com/mcoot/triviaduel/internal/storage/sql"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Question bank constants
const (
	QuestionBankStorage = "storage"
	QuestionBankMongo   = "mongo"
)

// Result store constants
const (
	ResultsDriverStorage  = "storage"
	ResultsDriverSQLite   = sqlstorage.DriverSQLite
	ResultsDriverPostgres = sqlstorage.DriverPostgres
)

// App contains all wired application components
type App struct {
	// Storage
	Storage      storage.Storage
	QuestionBank storage.QuestionBank
	ResultStore  storage.ResultStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	QuestionService *questions.Service
	ScoringService  *scoring.Service
	ResultsService  *results.Service
	MatchController *match.Controller
	HubManager      *realtime.HubManager
	Reaper          *jobs.Reaper

	logger  *slog.Logger
	closers []func(ctx context.Context) error
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the match storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// QuestionBank selects where questions are read from ("storage" or "mongo")
	// If empty, questions live alongside matches
	QuestionBank string
	// MongoConfig holds MongoDB settings (required if QuestionBank is "mongo")
	MongoConfig *mongostorage.Config
	// QuestionsFile is a JSON question file loaded into the bank at startup (optional)
	QuestionsFile string
	// ResultsDriver selects where finished matches are recorded ("storage", "sqlite" or "postgres")
	ResultsDriver string
	// ResultsDSN is the database DSN for the sqlite/postgres result store
	ResultsDSN string
	// Reaper configures idle match cleanup; zero values use defaults
	Reaper jobs.ReaperConfig
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []func(ctx context.Context) error
	fail := func(err error) (*App, error) {
		closeAll(ctx, closers)
		return nil, err
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, func(context.Context) error { return redisStore.Close() })
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var bank storage.QuestionBank = store
	switch cfg.QuestionBank {
	case "", QuestionBankStorage:
	case QuestionBankMongo:
		if cfg.MongoConfig == nil {
			return fail(errors.New("MongoConfig required when QuestionBank is mongo"))
		}
		mongoBank, err := mongostorage.New(ctx, *cfg.MongoConfig)
		if err != nil {
			return fail(err)
		}
		bank = mongoBank
		closers = append(closers, mongoBank.Close)
	default:
		return fail(errors.New("invalid QuestionBank: must be 'storage' or 'mongo'"))
	}

	var resultStore storage.ResultStore = store
	switch cfg.ResultsDriver {
	case "", ResultsDriverStorage:
	case ResultsDriverSQLite, ResultsDriverPostgres:
		if cfg.ResultsDSN == "" {
			return fail(fmt.Errorf("ResultsDSN required when ResultsDriver is %s", cfg.ResultsDriver))
		}
		sqlStore, err := sqlstorage.Open(cfg.ResultsDriver, cfg.ResultsDSN)
		if err != nil {
			return fail(err)
		}
		resultStore = sqlStore
		closers = append(closers, func(context.Context) error { return sqlStore.Close() })
	default:
		return fail(errors.New("invalid ResultsDriver: must be 'storage', 'sqlite' or 'postgres'"))
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()
	hubManager := realtime.NewHubManager(response.EncodeEvent, logger)

	app := newWithDependencies(store, bank, resultStore, clk, rnd, hubManager, logger)
	app.HubManager = hubManager
	app.Reaper = jobs.NewReaper(app.MatchController, cfg.Reaper, logger)
	app.closers = closers

	if cfg.QuestionsFile != "" {
		if err := app.QuestionService.LoadFromFile(ctx, cfg.QuestionsFile); err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	bank storage.QuestionBank,
	resultStore storage.ResultStore,
	clk clock.Clock,
	rnd random.Random,
	notifier notify.Notifier,
	logger *slog.Logger,
) *App {
	// Create services
	questionService := questions.New(bank, rnd, logger)
	scoringService := scoring.New()
	resultsService := results.New(resultStore, logger)
	matchController := match.NewController(store, questionService, scoringService, resultsService, notifier, clk, rnd, logger)

	return &App{
		Storage:         store,
		QuestionBank:    bank,
		ResultStore:     resultStore,
		Clock:           clk,
		Random:          rnd,
		QuestionService: questionService,
		ScoringService:  scoringService,
		ResultsService:  resultsService,
		MatchController: matchController,
		logger:          logger,
	}
}

// Close stops match timers, waits for pending result writes and releases
// external connections
func (a *App) Close(ctx context.Context) error {
	a.MatchController.Shutdown()

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.ResultsService.Close(waitCtx); err != nil {
		a.logger.Warn("result writes still pending at close", slog.Any("error", err))
	}

	return closeAll(ctx, a.closers)
}

func closeAll(ctx context.Context, closers []func(ctx context.Context) error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
