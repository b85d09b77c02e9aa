package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintMatchText(t *testing.T) {
	var buf bytes.Buffer
	countdown := 2
	NewOutput("text", &buf).Print(Match{
		GameID:         "ABC123",
		Category:       "tennis",
		Phase:          "countdown",
		StartCountdown: &countdown,
		Players: []Player{
			{ID: "p1", Username: "Alice", IsHost: true, IsReady: true},
			{ID: "p2", Username: "Bob", IsReady: true},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Match: ABC123")
	assert.Contains(t, out, "Countdown: 2")
	assert.Contains(t, out, "Alice (p1): 0 pts, 0 correct [host, ready]")
	assert.Contains(t, out, "Bob (p2): 0 pts, 0 correct [ready]")
}

func TestPrintResultsText(t *testing.T) {
	var list ResultList
	require.NoError(t, json.Unmarshal([]byte(`{"results":[{
		"game_id":"ABC123","category":"football","duration":61.5,"winner":"p1",
		"completed_at":"2024-01-01T12:00:00Z",
		"players":[{"player_id":"p1","username":"Alice","score":42},{"player_id":"p2","username":"Bob","score":30}]
	}]}`), &list))

	var buf bytes.Buffer
	NewOutput("text", &buf).Print(list)
	assert.Equal(t, "2024-01-01 12:00  ABC123  football    Alice 42 - Bob 30  winner: Alice\n", buf.String())

	buf.Reset()
	NewOutput("text", &buf).Print(ResultList{})
	assert.Equal(t, "No results yet\n", buf.String())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).Print(HealthResult{Status: "ok", Connections: 3})

	var got HealthResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, HealthResult{Status: "ok", Connections: 3}, got)
}

func TestClientReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"MATCH_NOT_FOUND","message":"match not found"}}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).Get("/api/v1/matches/NOPE00", &Match{})
	require.Error(t, err)
	assert.Equal(t, "match not found (MATCH_NOT_FOUND)", err.Error())
}

func TestClientDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","connections":1,"matches":2}`))
	}))
	defer server.Close()

	var got HealthResult
	require.NoError(t, NewClient(server.URL+"/").Get("/api/v1/health", &got))
	assert.Equal(t, HealthResult{Status: "ok", Connections: 1, Matches: 2}, got)
}

func TestRootCommandRunsAgainstServer(t *testing.T) {
	c := startServer(t)

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--server", c.baseURL, "categories"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "football\nbasketball\ntennis\nolympics\nmixed (all categories)\n", buf.String())

	buf.Reset()
	cmd = NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--server", c.baseURL, "results", "list", "-o", "text"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "No results yet\n", buf.String())

	cmd = NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", c.baseURL, "match", "get", "nope00"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATCH_NOT_FOUND")
}
