package sql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/storage"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// matchResultRow is the persisted shape of a model.MatchResult
type matchResultRow struct {
	gorm.Model
	GameID      string            `gorm:"index;not null"`
	Category    string            `gorm:"not null"`
	DurationMs  int64             `gorm:"not null"`
	Winner      string
	CompletedAt time.Time         `gorm:"index;not null"`
	Players     []playerResultRow `gorm:"foreignKey:MatchResultID;constraint:OnDelete:CASCADE"`
}

func (matchResultRow) TableName() string { return "match_results" }

type playerResultRow struct {
	ID                  uint   `gorm:"primaryKey"`
	MatchResultID       uint   `gorm:"index;not null"`
	Position            int    `gorm:"not null"`
	PlayerID            string `gorm:"not null"`
	Username            string `gorm:"not null"`
	Score               int    `gorm:"not null"`
	CorrectAnswers      int    `gorm:"not null"`
	AverageResponseTime float64
}

func (playerResultRow) TableName() string { return "match_result_players" }

// ResultStore persists match results through gorm
type ResultStore struct {
	db *gorm.DB
}

// Ensure ResultStore implements the interface
var _ storage.ResultStore = (*ResultStore)(nil)

// Open connects using the named driver and migrates the schema
func Open(driver, dsn string) (*ResultStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown results driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New wraps an open database and migrates the schema
func New(db *gorm.DB) (*ResultStore, error) {
	if err := db.AutoMigrate(&matchResultRow{}, &playerResultRow{}); err != nil {
		return nil, fmt.Errorf("migrating results schema: %w", err)
	}
	return &ResultStore{db: db}, nil
}

// Close releases the underlying connection pool
func (s *ResultStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *ResultStore) SaveResult(ctx context.Context, result *model.MatchResult) error {
	row := matchResultRow{
		GameID:      string(result.GameID),
		Category:    string(result.Category),
		DurationMs:  result.Duration.Milliseconds(),
		Winner:      string(result.Winner),
		CompletedAt: result.CompletedAt,
	}
	for i, p := range result.Players {
		row.Players = append(row.Players, playerResultRow{
			Position:            i,
			PlayerID:            string(p.PlayerID),
			Username:            p.Username,
			Score:               p.Score,
			CorrectAnswers:      p.CorrectAnswers,
			AverageResponseTime: p.AverageResponseTime,
		})
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *ResultStore) ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	if limit <= 0 {
		return []*model.MatchResult{}, nil
	}

	var rows []matchResultRow
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("completed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]*model.MatchResult, len(rows))
	for i, row := range rows {
		r := &model.MatchResult{
			GameID:      model.GameID(row.GameID),
			Category:    model.Category(row.Category),
			Duration:    time.Duration(row.DurationMs) * time.Millisecond,
			Winner:      model.PlayerID(row.Winner),
			CompletedAt: row.CompletedAt,
			Players:     make([]model.PlayerResult, len(row.Players)),
		}
		for j, p := range row.Players {
			r.Players[j] = model.PlayerResult{
				PlayerID:            model.PlayerID(p.PlayerID),
				Username:            p.Username,
				Score:               p.Score,
				CorrectAnswers:      p.CorrectAnswers,
				AverageResponseTime: p.AverageResponseTime,
			}
		}
		results[i] = r
	}
	return results, nil
}
