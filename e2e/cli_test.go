package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviaduel/internal/api"
	"github.com/mcoot/triviaduel/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "triviactl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/triviactl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application
	app, err := factory.New(context.Background(), factory.Config{Logger: logger})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Controller: app.MatchController,
		Matches:    app.Storage,
		Results:    app.ResultsService,
		HubManager: app.HubManager,
		Clock:      app.Clock,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	server.RegisterOnShutdown(app.HubManager.Shutdown)

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			app.HubManager.Shutdown()
			_ = app.HubManager.Wait(ctx)
			_ = app.Close(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// createMatch opens a websocket and hosts a match, returning its code.
// The connection stays open until the test ends so the match survives.
func createMatch(t *testing.T, serverURL, category string) string {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(serverURL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	frame := `{"type":"createMatch","payload":{"category":"` + category + `","username":"Alice"}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var evt struct {
			Type   string `json:"type"`
			GameID string `json:"game_id"`
		}
		require.NoError(t, json.Unmarshal(data, &evt))
		if evt.Type == "matchCreated" {
			return evt.GameID
		}
	}
}

// Response types for JSON parsing
type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Matches     int    `json:"matches"`
}

type categoriesResponse struct {
	Categories []struct {
		ID    string `json:"id"`
		Mixed bool   `json:"mixed"`
	} `json:"categories"`
}

type matchResponse struct {
	GameID   string `json:"game_id"`
	Category string `json:"category"`
	Phase    string `json:"phase"`
	Players  []struct {
		Username string `json:"username"`
		IsHost   bool   `json:"is_host"`
	} `json:"players"`
}

type resultsResponse struct {
	Results []json.RawMessage `json:"results"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_Categories(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("categories")
	require.NoError(t, err, "output: %s", output)

	var resp categoriesResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Categories, 5)
	assert.Equal(t, "mixed", resp.Categories[4].ID)
	assert.True(t, resp.Categories[4].Mixed)
}

func TestCLI_MatchGet(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	code := createMatch(t, ts.addr, "olympics")

	output, err := cli.run("match", "get", strings.ToLower(code))
	require.NoError(t, err, "output: %s", output)

	var resp matchResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, code, resp.GameID)
	assert.Equal(t, "olympics", resp.Category)
	assert.Equal(t, "waiting_for_players", resp.Phase)
	require.Len(t, resp.Players, 1)
	assert.True(t, resp.Players[0].IsHost)

	output, err = cli.run("health")
	require.NoError(t, err, "output: %s", output)
	var health healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &health))
	assert.Equal(t, 1, health.Matches)
	assert.Equal(t, 1, health.Connections)
}

func TestCLI_ResultsList(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("results", "list", "--limit", "5")
	require.NoError(t, err, "output: %s", output)

	var resp resultsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Empty(t, resp.Results)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("match", "get", "NOPE00")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	output, err = cli.run("play", "--username", "Alice")
	assert.Error(t, err)
	assert.Contains(t, output, "--category or --code")
}
