package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// questionTime is how long a question stays open, in seconds
const questionTime = 15.0

func newPlayCmd() *cobra.Command {
	var (
		category string
		code     string
		username string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a match from the terminal",
		Long: `Create a match (--category) or join one (--code), then type commands:

  ready               mark yourself ready
  answer <1-4|text>   answer the current question
  chat <text>         send a chat message
  category <name>     change the category (host, before start)
  rematch             ask for a rematch after game over
  end                 force game over
  leave               leave the match
  quit                disconnect

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if (category == "") == (code == "") {
				return errors.New("exactly one of --category or --code is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, err := client.Dial()
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			p := newPlayer(conn, NewOutput(cfg.Output, cmd.OutOrStdout()), time.Now)
			if code != "" {
				return p.run(ctx, cmd.InOrStdin(), "joinMatch", map[string]string{"game_id": strings.ToUpper(code), "username": username})
			}
			return p.run(ctx, cmd.InOrStdin(), "createMatch", map[string]string{"category": category, "username": username})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Create a match in this category")
	cmd.Flags().StringVar(&code, "code", "", "Join the match with this code")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Name shown to your opponent")

	return cmd
}

// Event is an outbound server frame
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	GameID    string          `json:"game_id,omitempty"`
	PlayerID  string          `json:"player_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type answerUpdate struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Correct  bool   `json:"correct"`
	Points   int    `json:"points"`
}

type departure struct {
	Username string `json:"username"`
	Match    *Match `json:"match"`
}

type chatMessage struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// playState is what the terminal knows about its match
type playState struct {
	mu         sync.Mutex
	playerID   string
	gameID     string
	match      *Match
	questionAt time.Time
}

func (s *playState) snapshot() (gameID string, match *Match, questionAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID, s.match, s.questionAt
}

// apply updates the state from an event
func (s *playState) apply(evt Event, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.Type {
	case "connected":
		s.playerID = evt.PlayerID
		return
	case "hostLeft", "matchExpired":
		s.gameID = ""
		s.match = nil
		return
	}

	if evt.GameID != "" && s.gameID == "" {
		s.gameID = evt.GameID
	}

	var m *Match
	switch evt.Type {
	case "matchCreated", "matchUpdated", "playerReadyUpdate", "categoryUpdated",
		"gameStarted", "nextQuestion", "goToLobby":
		var snapshot Match
		if json.Unmarshal(evt.Payload, &snapshot) == nil {
			m = &snapshot
		}
	case "gameOver":
		var over struct {
			Match Match `json:"match"`
		}
		if json.Unmarshal(evt.Payload, &over) == nil {
			m = &over.Match
		}
	case "playerLeft":
		var d departure
		if json.Unmarshal(evt.Payload, &d) == nil {
			m = d.Match
		}
	}
	if m == nil {
		return
	}
	if m.GameID != "" {
		s.gameID = m.GameID
	}
	if evt.Type == "gameStarted" || evt.Type == "nextQuestion" {
		s.questionAt = now
	}
	s.match = m
}

// parseCommand turns one line of input into an outbound message
func parseCommand(line string, s *playState, now time.Time) (string, any, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	gameID, m, questionAt := s.snapshot()
	if gameID == "" {
		return "", nil, errors.New("not in a match")
	}
	withGame := map[string]string{"game_id": gameID}

	switch strings.ToLower(verb) {
	case "ready":
		return "setReady", withGame, nil
	case "rematch":
		return "requestRematch", withGame, nil
	case "end":
		return "endMatch", withGame, nil
	case "leave":
		return "leaveMatch", withGame, nil
	case "chat":
		if rest == "" {
			return "", nil, errors.New("usage: chat <text>")
		}
		return "sendChatMessage", map[string]string{"game_id": gameID, "text": rest}, nil
	case "category":
		if rest == "" {
			return "", nil, errors.New("usage: category <name>")
		}
		return "updateCategory", map[string]string{"game_id": gameID, "category": rest}, nil
	case "answer":
		if rest == "" {
			return "", nil, errors.New("usage: answer <1-4|text>")
		}
		answer := rest
		if m != nil {
			if q := m.CurrentQuestion(); q != nil {
				if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= len(q.Options) {
					answer = q.Options[n-1]
				}
			}
		}
		remaining := questionTime
		if !questionAt.IsZero() {
			remaining = min(max(questionTime-now.Sub(questionAt).Seconds(), 0), questionTime)
		}
		return "submitAnswer", map[string]any{"game_id": gameID, "answer": answer, "time_remaining": remaining}, nil
	default:
		return "", nil, fmt.Errorf("unknown command %q", verb)
	}
}

// describeEvent renders an event for the terminal
func describeEvent(evt Event, s *playState) string {
	_, m, _ := s.snapshot()
	s.mu.Lock()
	self := s.playerID
	s.mu.Unlock()

	switch evt.Type {
	case "connected":
		return "Connected as " + evt.PlayerID
	case "matchCreated":
		return fmt.Sprintf("Match %s created. Share the code with your opponent.", evt.GameID)
	case "matchUpdated", "categoryUpdated", "goToLobby":
		if m == nil {
			return evt.Type
		}
		names := make([]string, len(m.Players))
		for i, p := range m.Players {
			names[i] = p.Username
		}
		return fmt.Sprintf("Match %s (%s): %s. Type 'ready' when set.", m.GameID, m.Category, strings.Join(names, " vs "))
	case "playerReadyUpdate":
		if m != nil && m.StartCountdown != nil {
			if *m.StartCountdown == 0 {
				return "Go!"
			}
			return fmt.Sprintf("Starting in %d...", *m.StartCountdown)
		}
		return "Ready status updated"
	case "gameStarted", "nextQuestion":
		if m == nil || m.CurrentQuestion() == nil {
			return evt.Type
		}
		q := m.CurrentQuestion()
		var b strings.Builder
		fmt.Fprintf(&b, "Question %d/%d: %s", m.CurrentQuestionIndex+1, len(m.Questions), q.Question)
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "\n  %d) %s", i+1, opt)
		}
		return b.String()
	case "scoreUpdate":
		var u answerUpdate
		_ = json.Unmarshal(evt.Payload, &u)
		who := "Opponent"
		if u.PlayerID == self {
			who = "You"
		}
		verdict := "wrong"
		if u.Correct {
			verdict = fmt.Sprintf("correct, +%d", u.Points)
		}
		return fmt.Sprintf("%s answered (%s). Score: %d", who, verdict, u.Score)
	case "playerAnswered":
		return ""
	case "gameOver":
		if m == nil {
			return "Game over"
		}
		var b strings.Builder
		b.WriteString("Game over!")
		for _, p := range m.Players {
			fmt.Fprintf(&b, "\n  %s: %d pts (%d correct)", p.Username, p.Score, p.CorrectAnswers)
		}
		b.WriteString("\nType 'rematch' to play again.")
		return b.String()
	case "rematchRequested":
		if evt.PlayerID == self {
			return "Rematch requested. Waiting for opponent."
		}
		return "Opponent wants a rematch. Type 'rematch' to accept."
	case "newChatMessage":
		var c chatMessage
		_ = json.Unmarshal(evt.Payload, &c)
		return fmt.Sprintf("<%s> %s", c.Username, c.Text)
	case "playerLeft":
		var d departure
		_ = json.Unmarshal(evt.Payload, &d)
		return d.Username + " left the match"
	case "hostLeft":
		return "The host left. The match is over."
	case "matchExpired":
		return "The match expired."
	case "error":
		var e errorPayload
		_ = json.Unmarshal(evt.Payload, &e)
		return fmt.Sprintf("Error: %s (%s)", e.Message, e.Code)
	default:
		return evt.Type
	}
}

// player drives one terminal session over a websocket
type player struct {
	conn  *websocket.Conn
	out   *Output
	now   func() time.Time
	state playState
}

func newPlayer(conn *websocket.Conn, out *Output, now func() time.Time) *player {
	return &player{conn: conn, out: out, now: now}
}

func (p *player) send(msgType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{Type: msgType, Payload: body})
	if err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

// readEvents prints events until the connection closes
func (p *player) readEvents(done chan<- error) {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			done <- err
			return
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		p.state.apply(evt, p.now())

		if p.out.format == "json" {
			p.out.printJSON(evt)
			continue
		}
		if text := describeEvent(evt, &p.state); text != "" {
			fmt.Fprintln(p.out.w, text)
		}
		if evt.Type == "hostLeft" || evt.Type == "matchExpired" {
			done <- nil
			return
		}
	}
}

func (p *player) run(ctx context.Context, in io.Reader, firstType string, firstPayload any) error {
	done := make(chan error, 1)
	go p.readEvents(done)

	if err := p.send(firstType, firstPayload); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("connection lost: %w", err)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "quit" {
				return nil
			}
			msgType, payload, err := parseCommand(line, &p.state, p.now())
			if err != nil {
				p.out.PrintError(err)
				continue
			}
			if err := p.send(msgType, payload); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
			if msgType == "leaveMatch" {
				p.state.mu.Lock()
				p.state.gameID = ""
				p.state.match = nil
				p.state.mu.Unlock()
			}
		}
	}
}
