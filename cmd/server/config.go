package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/triviaduel/internal/factory"
	"github.com/mcoot/triviaduel/internal/jobs"
	mongostorage "github.com/mcoot/triviaduel/internal/storage/mongo"
	redisstorage "github.com/mcoot/triviaduel/internal/storage/redis"
)

// Config is the server's command line and environment configuration
type Config struct {
	bind             string
	port             int
	publicURL        string
	storage          string
	redisURL         string
	questionBank     string
	mongoURI         string
	mongoDatabase    string
	questionsFile    string
	resultsDriver    string
	resultsDSN       string
	matchIdleTimeout time.Duration
	reaperSchedule   string
	logLevel         string
	logFormat        string
	allowedOrigins   []string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.storage == factory.StorageTypeRedis && c.redisURL == "" {
		return errors.New("--redis-url is required when --storage=redis")
	}
	if c.questionBank == factory.QuestionBankMongo && c.mongoURI == "" {
		return errors.New("--mongo-uri is required when --question-bank=mongo")
	}
	if c.resultsDriver != factory.ResultsDriverStorage && c.resultsDSN == "" {
		return fmt.Errorf("--results-dsn is required when --results-driver=%s", c.resultsDriver)
	}
	if c.matchIdleTimeout <= 0 {
		return errors.New("--match-idle-timeout must be positive")
	}
	if _, err := parseLevel(c.logLevel); err != nil {
		return err
	}
	if c.logFormat != "json" && c.logFormat != "text" {
		return fmt.Errorf("invalid log format %q (must be json or text)", c.logFormat)
	}
	return nil
}

// factoryConfig translates flags into the wiring layer's config
func (c *Config) factoryConfig(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:        logger,
		StorageType:   c.storage,
		QuestionBank:  c.questionBank,
		QuestionsFile: c.questionsFile,
		ResultsDriver: c.resultsDriver,
		ResultsDSN:    c.resultsDSN,
		Reaper: jobs.ReaperConfig{
			Schedule: c.reaperSchedule,
			MaxIdle:  c.matchIdleTimeout,
		},
	}

	if c.storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.redisURL
		cfg.RedisConfig = &redisCfg
	}

	if c.questionBank == factory.QuestionBankMongo {
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URI = c.mongoURI
		if c.mongoDatabase != "" {
			mongoCfg.Database = c.mongoDatabase
		}
		cfg.MongoConfig = &mongoCfg
	}

	return cfg
}

func (c *Config) newLogger() *slog.Logger {
	level, _ := parseLevel(c.logLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.logFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TRIVIA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "triviaduel",
		Short: "Real-time head-to-head sports trivia server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRIVIA_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TRIVIA_PORT)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "external base URL used in invite links (env: TRIVIA_PUBLIC_URL)")
	fs.StringVar(&cfg.storage, "storage", factory.StorageTypeMemory, "match storage: memory or redis (env: TRIVIA_STORAGE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL (env: TRIVIA_REDIS_URL)")
	fs.StringVar(&cfg.questionBank, "question-bank", factory.QuestionBankStorage, "question bank: storage or mongo (env: TRIVIA_QUESTION_BANK)")
	fs.StringVar(&cfg.mongoURI, "mongo-uri", "", "mongodb connection URI (env: TRIVIA_MONGO_URI)")
	fs.StringVar(&cfg.mongoDatabase, "mongo-database", "", "mongodb database name (env: TRIVIA_MONGO_DATABASE)")
	fs.StringVar(&cfg.questionsFile, "questions-file", "", "JSON question file loaded at startup (env: TRIVIA_QUESTIONS_FILE)")
	fs.StringVar(&cfg.resultsDriver, "results-driver", factory.ResultsDriverStorage, "result store: storage, sqlite or postgres (env: TRIVIA_RESULTS_DRIVER)")
	fs.StringVar(&cfg.resultsDSN, "results-dsn", "", "DSN for the sqlite/postgres result store (env: TRIVIA_RESULTS_DSN)")
	fs.DurationVar(&cfg.matchIdleTimeout, "match-idle-timeout", jobs.DefaultMatchIdleTimeout, "time before untouched matches are deleted (env: TRIVIA_MATCH_IDLE_TIMEOUT)")
	fs.StringVar(&cfg.reaperSchedule, "reaper-schedule", jobs.DefaultReaperSchedule, "cron schedule for the idle match reaper (env: TRIVIA_REAPER_SCHEDULE)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn or error (env: TRIVIA_LOG_LEVEL)")
	fs.StringVar(&cfg.logFormat, "log-format", "json", "log format: json or text (env: TRIVIA_LOG_FORMAT)")
	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "origins allowed for CORS and websockets, empty for any (env: TRIVIA_ALLOWED_ORIGINS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
