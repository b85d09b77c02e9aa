package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case CategoryList:
		o.printCategories(v)
	case Match:
		o.printMatch(v)
	case ResultList:
		o.printResults(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Matches     int    `json:"matches"`
}

// CategoryList response type
type CategoryList struct {
	Categories []struct {
		ID    string `json:"id"`
		Mixed bool   `json:"mixed"`
	} `json:"categories"`
}

// Match response type (matches API)
type Match struct {
	GameID               string     `json:"game_id"`
	Category             string     `json:"category"`
	Phase                string     `json:"phase"`
	Questions            []Question `json:"questions"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	Players              []Player   `json:"players"`
	AnsweredPlayerIDs    []string   `json:"answered_player_ids"`
	IsStarted            bool       `json:"is_started"`
	IsEnded              bool       `json:"is_ended"`
	StartCountdown       *int       `json:"start_countdown"`
	CompletionTime       float64    `json:"completion_time"`
}

// CurrentQuestion returns the question being played, or nil
func (m Match) CurrentQuestion() *Question {
	if m.CurrentQuestionIndex < 0 || m.CurrentQuestionIndex >= len(m.Questions) {
		return nil
	}
	return &m.Questions[m.CurrentQuestionIndex]
}

// Question response type
type Question struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Player response type
type Player struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
	IsHost         bool   `json:"is_host"`
	IsReady        bool   `json:"is_ready"`
	RematchReady   bool   `json:"rematch_ready"`
}

// ResultList response type
type ResultList struct {
	Results []Result `json:"results"`
}

// Result response type
type Result struct {
	GameID   string  `json:"game_id"`
	Category string  `json:"category"`
	Duration float64 `json:"duration"`
	Players  []struct {
		PlayerID       string `json:"player_id"`
		Username       string `json:"username"`
		Score          int    `json:"score"`
		CorrectAnswers int    `json:"correct_answers"`
	} `json:"players"`
	Winner      *string   `json:"winner"`
	CompletedAt time.Time `json:"completed_at"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
	fmt.Fprintf(o.w, "Matches: %d\n", h.Matches)
}

func (o *Output) printCategories(c CategoryList) {
	for _, cat := range c.Categories {
		if cat.Mixed {
			fmt.Fprintf(o.w, "%s (all categories)\n", cat.ID)
			continue
		}
		fmt.Fprintln(o.w, cat.ID)
	}
}

func (o *Output) printMatch(m Match) {
	fmt.Fprintf(o.w, "Match: %s\n", m.GameID)
	fmt.Fprintf(o.w, "Category: %s\n", m.Category)
	fmt.Fprintf(o.w, "Phase: %s\n", m.Phase)
	if m.StartCountdown != nil {
		fmt.Fprintf(o.w, "Countdown: %d\n", *m.StartCountdown)
	}
	if m.IsStarted && !m.IsEnded {
		fmt.Fprintf(o.w, "Question: %d/%d\n", m.CurrentQuestionIndex+1, len(m.Questions))
	}
	if m.IsEnded {
		fmt.Fprintf(o.w, "Completed in: %.1fs\n", m.CompletionTime)
	}
	fmt.Fprintf(o.w, "Players (%d):\n", len(m.Players))
	for _, p := range m.Players {
		var tags []string
		if p.IsHost {
			tags = append(tags, "host")
		}
		if p.IsReady {
			tags = append(tags, "ready")
		}
		if p.RematchReady {
			tags = append(tags, "rematch")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s (%s): %d pts, %d correct%s\n", p.Username, p.ID, p.Score, p.CorrectAnswers, suffix)
	}
}

func (o *Output) printResults(r ResultList) {
	if len(r.Results) == 0 {
		fmt.Fprintln(o.w, "No results yet")
		return
	}
	for _, res := range r.Results {
		winner := "tie"
		for _, p := range res.Players {
			if res.Winner != nil && p.PlayerID == *res.Winner {
				winner = p.Username
			}
		}
		scores := make([]string, len(res.Players))
		for i, p := range res.Players {
			scores[i] = fmt.Sprintf("%s %d", p.Username, p.Score)
		}
		fmt.Fprintf(o.w, "%s  %s  %-10s  %s  winner: %s\n",
			res.CompletedAt.Format("2006-01-02 15:04"),
			res.GameID,
			res.Category,
			strings.Join(scores, " - "),
			winner,
		)
	}
}
