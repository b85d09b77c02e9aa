package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, matchKey(match.ID), data, s.cfg.MatchTTL).Err()
}

func (s *Storage) GetMatch(ctx context.Context, id model.GameID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	if match.AnsweredPlayerIDs == nil {
		match.AnsweredPlayerIDs = make(map[model.PlayerID]bool)
	}
	return &match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.GameID) error {
	return s.client.Del(ctx, matchKey(id)).Err()
}

func (s *Storage) MatchExists(ctx context.Context, id model.GameID) (bool, error) {
	n, err := s.client.Exists(ctx, matchKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, matchScanPattern(), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Match{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	matches := make([]*model.Match, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Expired between SCAN and MGET
			continue
		}
		var match model.Match
		if err := json.Unmarshal([]byte(str), &match); err != nil {
			return nil, err
		}
		matches = append(matches, &match)
	}
	return matches, nil
}

// Question operations

func (s *Storage) GetQuestions(ctx context.Context, category model.Category) ([]model.Question, error) {
	data, err := s.client.Get(ctx, questionsKey(category)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQuestionsNotLoaded
		}
		return nil, err
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decoding %s questions: %w", category, err)
	}
	return questions, nil
}

func (s *Storage) SaveQuestions(ctx context.Context, category model.Category, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	// Question bank does not expire
	return s.client.Set(ctx, questionsKey(category), data, 0).Err()
}

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, resultsKey(), data)
	pipe.LTrim(ctx, resultsKey(), 0, s.cfg.MaxResults-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	if limit <= 0 {
		return []*model.MatchResult{}, nil
	}
	values, err := s.client.LRange(ctx, resultsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.MatchResult, 0, len(values))
	for _, v := range values {
		var result model.MatchResult
		if err := json.Unmarshal([]byte(v), &result); err != nil {
			return nil, err
		}
		results = append(results, &result)
	}
	return results, nil
}
