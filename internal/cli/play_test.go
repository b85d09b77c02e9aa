package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviaduel/internal/api"
	"github.com/mcoot/triviaduel/internal/factory"
	"github.com/mcoot/triviaduel/internal/testutil"
)

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func startedState(t *testing.T, questionAt time.Time) *playState {
	t.Helper()
	s := &playState{}
	s.apply(Event{Type: "connected", PlayerID: "me"}, questionAt)
	s.apply(Event{
		Type:   "gameStarted",
		GameID: "ABC123",
		Payload: rawJSON(t, map[string]any{
			"game_id":                "ABC123",
			"category":               "football",
			"current_question_index": 0,
			"is_started":             true,
			"questions": []map[string]any{{
				"id":       "q1",
				"question": "Who won the 2022 World Cup?",
				"options":  []string{"France", "Argentina", "Brazil", "Croatia"},
			}},
		}),
	}, questionAt)
	return s
}

func TestParseCommandRequiresMatch(t *testing.T) {
	_, _, err := parseCommand("ready", &playState{}, time.Now())
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := startedState(t, start)

	tests := []struct {
		name        string
		line        string
		wantType    string
		wantPayload map[string]any
		wantErr     bool
	}{
		{name: "ready", line: "ready", wantType: "setReady", wantPayload: map[string]any{"game_id": "ABC123"}},
		{name: "rematch", line: "rematch", wantType: "requestRematch", wantPayload: map[string]any{"game_id": "ABC123"}},
		{name: "end", line: "END", wantType: "endMatch", wantPayload: map[string]any{"game_id": "ABC123"}},
		{name: "leave", line: "leave", wantType: "leaveMatch", wantPayload: map[string]any{"game_id": "ABC123"}},
		{name: "chat", line: "chat good luck!", wantType: "sendChatMessage", wantPayload: map[string]any{"game_id": "ABC123", "text": "good luck!"}},
		{name: "category", line: "category tennis", wantType: "updateCategory", wantPayload: map[string]any{"game_id": "ABC123", "category": "tennis"}},
		{name: "answer by number", line: "answer 2", wantType: "submitAnswer", wantPayload: map[string]any{"game_id": "ABC123", "answer": "Argentina", "time_remaining": 11.0}},
		{name: "answer by text", line: "answer Brazil", wantType: "submitAnswer", wantPayload: map[string]any{"game_id": "ABC123", "answer": "Brazil", "time_remaining": 11.0}},
		{name: "answer out of range is text", line: "answer 7", wantType: "submitAnswer", wantPayload: map[string]any{"game_id": "ABC123", "answer": "7", "time_remaining": 11.0}},
		{name: "empty chat", line: "chat", wantErr: true},
		{name: "empty answer", line: "answer", wantErr: true},
		{name: "unknown", line: "dance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgType, payload, err := parseCommand(tt.line, s, start.Add(4*time.Second))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, msgType)

			var got map[string]any
			require.NoError(t, json.Unmarshal(rawJSON(t, payload), &got))
			assert.Equal(t, tt.wantPayload, got)
		})
	}
}

func TestParseCommandClampsTimeRemaining(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := startedState(t, start)

	_, payload, err := parseCommand("answer 1", s, start.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0.0, payload.(map[string]any)["time_remaining"])
}

func TestApplyClearsStateWhenHostLeaves(t *testing.T) {
	s := startedState(t, time.Now())

	s.apply(Event{Type: "hostLeft", GameID: "ABC123"}, time.Now())

	gameID, m, _ := s.snapshot()
	assert.Empty(t, gameID)
	assert.Nil(t, m)
}

func TestDescribeEvent(t *testing.T) {
	s := startedState(t, time.Now())

	text := describeEvent(Event{Type: "gameStarted"}, s)
	assert.Contains(t, text, "Question 1/1: Who won the 2022 World Cup?")
	assert.Contains(t, text, "2) Argentina")

	text = describeEvent(Event{
		Type:    "scoreUpdate",
		Payload: rawJSON(t, map[string]any{"player_id": "me", "score": 13, "correct": true, "points": 13}),
	}, s)
	assert.Equal(t, "You answered (correct, +13). Score: 13", text)

	text = describeEvent(Event{
		Type:    "error",
		Payload: rawJSON(t, map[string]any{"code": "ALREADY_ANSWERED", "message": "player has already answered this question"}),
	}, s)
	assert.Equal(t, "Error: player has already answered this question (ALREADY_ANSWERED)", text)

	assert.Empty(t, describeEvent(Event{Type: "playerAnswered"}, s))
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startServer(t *testing.T) *Client {
	t.Helper()
	logger := testutil.NopLogger()
	app, err := factory.New(t.Context(), factory.Config{Logger: logger})
	require.NoError(t, err)

	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Controller: app.MatchController,
		Matches:    app.Storage,
		Results:    app.ResultsService,
		HubManager: app.HubManager,
		Clock:      app.Clock,
	}))
	t.Cleanup(func() {
		app.HubManager.Shutdown()
		server.Close()
	})
	return NewClient(server.URL)
}

type session struct {
	player *player
	out    *syncBuffer
	in     *io.PipeWriter
	done   chan error
}

func startSession(t *testing.T, c *Client, msgType string, payload any) *session {
	t.Helper()
	conn, err := c.Dial()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	out := &syncBuffer{}
	inR, inW := io.Pipe()
	s := &session{
		player: newPlayer(conn, NewOutput("text", out), time.Now),
		out:    out,
		in:     inW,
		done:   make(chan error, 1),
	}
	go func() { s.done <- s.player.run(t.Context(), inR, msgType, payload) }()
	return s
}

func (s *session) gameID() string {
	id, _, _ := s.player.state.snapshot()
	return id
}

func (s *session) say(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(s.in, line+"\n")
	require.NoError(t, err)
}

func TestPlaySessionsTalkThroughServer(t *testing.T) {
	c := startServer(t)

	host := startSession(t, c, "createMatch", map[string]string{"category": "football", "username": "Alice"})
	require.Eventually(t, func() bool { return host.gameID() != "" }, 5*time.Second, 10*time.Millisecond)
	code := host.gameID()
	assert.Contains(t, host.out.String(), "Match "+code+" created")

	guest := startSession(t, c, "joinMatch", map[string]string{"game_id": strings.ToLower(code), "username": "Bob"})
	require.Eventually(t, func() bool {
		_, m, _ := host.player.state.snapshot()
		return m != nil && len(m.Players) == 2
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return guest.gameID() == code }, 5*time.Second, 10*time.Millisecond)

	guest.say(t, "chat good luck")
	require.Eventually(t, func() bool {
		return strings.Contains(host.out.String(), "<Bob> good luck")
	}, 5*time.Second, 10*time.Millisecond)

	guest.say(t, "category tennis")
	require.Eventually(t, func() bool {
		return strings.Contains(guest.out.String(), "NOT_HOST")
	}, 5*time.Second, 10*time.Millisecond)

	// The host leaving ends the guest's session
	host.say(t, "leave")
	select {
	case err := <-guest.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("guest session did not end")
	}
	assert.Contains(t, guest.out.String(), "The host left")

	host.say(t, "quit")
	select {
	case err := <-host.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host session did not end")
	}
}
