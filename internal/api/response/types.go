package response

import (
	"slices"
	"time"

	"github.com/mcoot/triviaduel/internal/model"
)

// Question represents a question in API responses
type Question struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QuestionFromModel converts a model.Question
func QuestionFromModel(q model.Question) Question {
	return Question{
		ID:            string(q.ID),
		Category:      string(q.Category),
		Question:      q.Text,
		Options:       slices.Clone(q.Options),
		CorrectAnswer: q.CorrectAnswer,
	}
}

// Player represents a player in API responses
type Player struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	IsHost         bool      `json:"is_host"`
	IsReady        bool      `json:"is_ready"`
	RematchReady   bool      `json:"rematch_ready"`
	ResponseTimes  []float64 `json:"response_times"`
}

// PlayerFromModel converts a model.Player
func PlayerFromModel(p model.Player) Player {
	times := slices.Clone(p.ResponseTimes)
	if times == nil {
		times = []float64{}
	}
	return Player{
		ID:             string(p.ID),
		Username:       p.Username,
		Score:          p.Score,
		CorrectAnswers: p.CorrectAnswers,
		IsHost:         p.IsHost,
		IsReady:        p.IsReady,
		RematchReady:   p.RematchReady,
		ResponseTimes:  times,
	}
}

// ChatMessage represents a chat entry
type ChatMessage struct {
	PlayerID  string    `json:"player_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessageFromModel converts a model.ChatMessage
func ChatMessageFromModel(c model.ChatMessage) ChatMessage {
	return ChatMessage{
		PlayerID:  string(c.PlayerID),
		Username:  c.Username,
		Text:      c.Text,
		Timestamp: c.Timestamp,
	}
}

// Match is the full match snapshot sent to clients
type Match struct {
	GameID                 string        `json:"game_id"`
	Category               string        `json:"category"`
	Phase                  string        `json:"phase"`
	Questions              []Question    `json:"questions"`
	CurrentQuestionIndex   int           `json:"current_question_index"`
	Players                []Player      `json:"players"`
	AnsweredPlayerIDs      []string      `json:"answered_player_ids"`
	FinishedPlayers        []string      `json:"finished_players"`
	IsStarted              bool          `json:"is_started"`
	IsEnded                bool          `json:"is_ended"`
	StartCountdown         *int          `json:"start_countdown"`
	QuestionStartTimestamp time.Time     `json:"question_start_timestamp"`
	CompletionTime         float64       `json:"completion_time"`
	ChatMessages           []ChatMessage `json:"chat_messages"`
	CreatedAt              time.Time     `json:"created_at"`
}

// MatchFromModel converts a model.Match
func MatchFromModel(m *model.Match) Match {
	resp := Match{
		GameID:                 string(m.ID),
		Category:               string(m.Category),
		Phase:                  string(m.Phase()),
		Questions:              make([]Question, len(m.Questions)),
		CurrentQuestionIndex:   m.CurrentQuestionIndex,
		Players:                make([]Player, len(m.Players)),
		AnsweredPlayerIDs:      make([]string, 0, len(m.AnsweredPlayerIDs)),
		FinishedPlayers:        make([]string, len(m.FinishedPlayers)),
		IsStarted:              m.IsStarted,
		IsEnded:                m.IsEnded,
		QuestionStartTimestamp: m.QuestionStartedAt,
		CompletionTime:         m.CompletionTime.Seconds(),
		ChatMessages:           make([]ChatMessage, len(m.ChatMessages)),
		CreatedAt:              m.CreatedAt,
	}
	if m.StartCountdown != nil {
		countdown := *m.StartCountdown
		resp.StartCountdown = &countdown
	}
	for i, q := range m.Questions {
		resp.Questions[i] = QuestionFromModel(q)
	}
	for i, p := range m.Players {
		resp.Players[i] = PlayerFromModel(p)
	}
	for id, answered := range m.AnsweredPlayerIDs {
		if answered {
			resp.AnsweredPlayerIDs = append(resp.AnsweredPlayerIDs, string(id))
		}
	}
	slices.Sort(resp.AnsweredPlayerIDs)
	for i, id := range m.FinishedPlayers {
		resp.FinishedPlayers[i] = string(id)
	}
	for i, c := range m.ChatMessages {
		resp.ChatMessages[i] = ChatMessageFromModel(c)
	}
	return resp
}

// Category describes one selectable category
type Category struct {
	ID    string `json:"id"`
	Mixed bool   `json:"mixed"`
}

// CategoriesResponse lists the selectable categories
type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}

// NewCategoriesResponse lists every known category
func NewCategoriesResponse() CategoriesResponse {
	resp := CategoriesResponse{Categories: make([]Category, len(model.AllCategories))}
	for i, c := range model.AllCategories {
		resp.Categories[i] = Category{ID: string(c), Mixed: !c.IsConcrete()}
	}
	return resp
}

// PlayerResult is one player's line in a persisted result
type PlayerResult struct {
	PlayerID            string  `json:"player_id"`
	Username            string  `json:"username"`
	Score               int     `json:"score"`
	CorrectAnswers      int     `json:"correct_answers"`
	AverageResponseTime float64 `json:"average_response_time"`
}

// MatchResult represents a completed match
type MatchResult struct {
	GameID      string         `json:"game_id"`
	Category    string         `json:"category"`
	Duration    float64        `json:"duration"`
	Players     []PlayerResult `json:"players"`
	Winner      *string        `json:"winner"`
	CompletedAt time.Time      `json:"completed_at"`
}

// MatchResultFromModel converts a model.MatchResult
func MatchResultFromModel(r *model.MatchResult) MatchResult {
	resp := MatchResult{
		GameID:      string(r.GameID),
		Category:    string(r.Category),
		Duration:    r.Duration.Seconds(),
		Players:     make([]PlayerResult, len(r.Players)),
		CompletedAt: r.CompletedAt,
	}
	if r.Winner != "" {
		winner := string(r.Winner)
		resp.Winner = &winner
	}
	for i, p := range r.Players {
		resp.Players[i] = PlayerResult{
			PlayerID:            string(p.PlayerID),
			Username:            p.Username,
			Score:               p.Score,
			CorrectAnswers:      p.CorrectAnswers,
			AverageResponseTime: p.AverageResponseTime,
		}
	}
	return resp
}

// ResultsResponse lists recent results, newest first
type ResultsResponse struct {
	Results []MatchResult `json:"results"`
}

// HealthResponse reports liveness and a few gauges
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Matches     int    `json:"matches"`
}
