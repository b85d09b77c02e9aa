package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/storage"
)

// Config holds the connection settings for the question bank
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns sensible defaults for the question bank
func DefaultConfig() Config {
	return Config{
		URI:        "mongodb://localhost:27017",
		Database:   "trivia",
		Collection: "questions",
	}
}

// questionDoc is the stored shape of a question
type questionDoc struct {
	ID            string   `bson:"_id"`
	Category      string   `bson:"category"`
	Text          string   `bson:"question"`
	Options       []string `bson:"options"`
	CorrectAnswer string   `bson:"correctAnswer"`
}

// QuestionBank is a MongoDB-backed question bank
type QuestionBank struct {
	client *mongo.Client
	col    *mongo.Collection
}

// Ensure QuestionBank implements the interface
var _ storage.QuestionBank = (*QuestionBank)(nil)

// New connects to MongoDB and ensures an index on category
func New(ctx context.Context, cfg Config) (*QuestionBank, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	col := client.Database(cfg.Database).Collection(cfg.Collection)
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating category index: %w", err)
	}

	return &QuestionBank{client: client, col: col}, nil
}

// Close disconnects from MongoDB
func (b *QuestionBank) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// GetQuestions returns every question stored under category. An empty
// category counts as not loaded.
func (b *QuestionBank) GetQuestions(ctx context.Context, category model.Category) ([]model.Question, error) {
	cur, err := b.col.Find(ctx, bson.M{"category": string(category)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []questionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, model.ErrQuestionsNotLoaded
	}

	questions := make([]model.Question, len(docs))
	for i, d := range docs {
		questions[i] = model.Question{
			ID:            model.QuestionID(d.ID),
			Category:      model.Category(d.Category),
			Text:          d.Text,
			Options:       d.Options,
			CorrectAnswer: d.CorrectAnswer,
		}
	}
	return questions, nil
}

// SaveQuestions replaces the category's questions
func (b *QuestionBank) SaveQuestions(ctx context.Context, category model.Category, questions []model.Question) error {
	if _, err := b.col.DeleteMany(ctx, bson.M{"category": string(category)}); err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}

	docs := make([]any, len(questions))
	for i, q := range questions {
		docs[i] = questionDoc{
			ID:            string(q.ID),
			Category:      string(category),
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	_, err := b.col.InsertMany(ctx, docs)
	return err
}
