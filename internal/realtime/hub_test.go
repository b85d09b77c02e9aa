package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/testutil"
)

func jsonEncoder(event model.Event) ([]byte, error) {
	return json.Marshal(map[string]any{"type": event.Type, "game_id": event.GameID})
}

type HubSuite struct {
	suite.Suite
	manager *HubManager
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.manager = NewHubManager(jsonEncoder, testutil.NopLogger())
}

func (s *HubSuite) client(id model.PlayerID) *Client {
	c := newClient(id, nil, testutil.NopLogger())
	s.manager.Register(c)
	return c
}

func (s *HubSuite) drain(c *Client) []string {
	var out []string
	for {
		select {
		case msg := <-c.send:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func (s *HubSuite) TestBroadcastReachesSubscribersOnly() {
	a, b, other := s.client("a"), s.client("b"), s.client("other")
	s.manager.Subscribe("GAME01", "a")
	s.manager.Subscribe("GAME01", "b")
	s.manager.Subscribe("GAME02", "other")

	s.manager.Broadcast("GAME01", model.Event{Type: model.EventMatchUpdated, GameID: "GAME01"})

	s.Len(s.drain(a), 1)
	s.Len(s.drain(b), 1)
	s.Empty(s.drain(other))
}

func (s *HubSuite) TestBroadcastPreservesOrder() {
	a := s.client("a")
	s.manager.Subscribe("GAME01", "a")

	s.manager.Broadcast("GAME01", model.Event{Type: model.EventPlayerReadyUpdate})
	s.manager.Broadcast("GAME01", model.Event{Type: model.EventMatchUpdated})
	s.manager.Broadcast("GAME01", model.Event{Type: model.EventGameStarted})

	msgs := s.drain(a)
	s.Require().Len(msgs, 3)
	s.Contains(msgs[0], "playerReadyUpdate")
	s.Contains(msgs[1], "matchUpdated")
	s.Contains(msgs[2], "gameStarted")
}

func (s *HubSuite) TestSendTargetsOnePlayer() {
	a, b := s.client("a"), s.client("b")
	s.manager.Subscribe("GAME01", "a")
	s.manager.Subscribe("GAME01", "b")

	s.manager.Send("a", model.Event{Type: model.EventError})

	s.Len(s.drain(a), 1)
	s.Empty(s.drain(b))
}

func (s *HubSuite) TestSendToUnknownPlayerIsNoop() {
	s.NotPanics(func() {
		s.manager.Send("ghost", model.Event{Type: model.EventError})
	})
}

func (s *HubSuite) TestSubscribedButDisconnectedPlayerIsSkipped() {
	a := s.client("a")
	s.manager.Subscribe("GAME01", "a")
	s.manager.Subscribe("GAME01", "http-only")

	s.manager.Broadcast("GAME01", model.Event{Type: model.EventMatchUpdated})

	s.Len(s.drain(a), 1)
}

func (s *HubSuite) TestUnsubscribeDropsEmptyHub() {
	s.client("a")
	s.manager.Subscribe("GAME01", "a")
	s.Equal(1, s.manager.HubCount())

	s.manager.Unsubscribe("GAME01", "a")
	s.Equal(0, s.manager.HubCount())
}

func (s *HubSuite) TestCloseStopsBroadcasts() {
	a := s.client("a")
	s.manager.Subscribe("GAME01", "a")

	s.manager.Close("GAME01")
	s.manager.Broadcast("GAME01", model.Event{Type: model.EventMatchUpdated})

	s.Empty(s.drain(a))
	s.Equal(0, s.manager.HubCount())
	s.Equal(1, s.manager.ClientCount())
}

func (s *HubSuite) TestSlowClientIsDisconnected() {
	slow := s.client("slow")
	s.manager.Subscribe("GAME01", "slow")

	for range sendBufferSize {
		s.manager.Broadcast("GAME01", model.Event{Type: model.EventScoreUpdate})
	}
	select {
	case <-slow.Done():
		s.Fail("client closed before its buffer filled")
	default:
	}

	s.manager.Broadcast("GAME01", model.Event{Type: model.EventScoreUpdate})

	select {
	case <-slow.Done():
	default:
		s.Fail("slow client was not disconnected")
	}
}

func (s *HubSuite) TestEncodeFailureDeliversNothing() {
	s.manager = NewHubManager(func(model.Event) ([]byte, error) {
		return nil, errors.New("boom")
	}, testutil.NopLogger())
	a := s.client("a")
	s.manager.Subscribe("GAME01", "a")

	s.manager.Broadcast("GAME01", model.Event{Type: model.EventMatchUpdated})
	s.manager.Send("a", model.Event{Type: model.EventError})

	s.Empty(s.drain(a))
}

func (s *HubSuite) TestUnregisterIgnoresReplacedClient() {
	old := newClient("a", nil, testutil.NopLogger())
	s.manager.Register(old)
	replacement := s.client("a")

	s.manager.Unregister(old)

	s.Equal(1, s.manager.ClientCount())
	s.manager.Send("a", model.Event{Type: model.EventError})
	s.Len(s.drain(replacement), 1)
}

func (s *HubSuite) TestShutdownClosesClients() {
	a, b := s.client("a"), s.client("b")

	s.manager.Shutdown()

	for _, c := range []*Client{a, b} {
		select {
		case <-c.Done():
		default:
			s.Fail("client still open after shutdown")
		}
	}
}

func (s *HubSuite) TestPumpsOverWebsocket() {
	inbound := make(chan string, 1)
	registered := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, testutil.NopLogger())
		s.manager.Register(c)
		registered <- c
		go c.WritePump()
		c.ReadPump(func(data []byte) { inbound <- string(data) })
		s.manager.Unregister(c)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	s.Require().NoError(err)
	defer func() { _ = conn.Close() }()

	var c *Client
	select {
	case c = <-registered:
	case <-time.After(2 * time.Second):
		s.FailNow("server never registered the client")
	}
	s.NotEmpty(c.ID())

	s.manager.Send(c.ID(), model.Event{Type: model.EventConnected})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	s.Require().NoError(err)
	s.Contains(string(msg), "connected")

	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"setReady"}`)))
	select {
	case got := <-inbound:
		s.Equal(`{"type":"setReady"}`, got)
	case <-time.After(2 * time.Second):
		s.Fail("inbound frame not handled")
	}
}

// serveClient upgrades connections and runs the pumps the way the session
// handler does. Each server-side client is sent on registered and its
// session end is signalled on ended.
func (s *HubSuite) serveClient(registered chan<- *Client, ended chan<- model.PlayerID) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		end, ok := s.manager.BeginSession()
		if !ok {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		defer end()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, testutil.NopLogger())
		s.manager.Register(c)
		registered <- c
		go c.WritePump()
		c.ReadPump(func([]byte) {})
		s.manager.Unregister(c)
		ended <- c.ID()
	}))
}

func (s *HubSuite) dialAndRegister(srv *httptest.Server, registered <-chan *Client) (*websocket.Conn, *Client) {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	s.Require().NoError(err)

	select {
	case c := <-registered:
		return conn, c
	case <-time.After(2 * time.Second):
		s.FailNow("server never registered the client")
		return nil, nil
	}
}

func (s *HubSuite) TestSlowPeerIsEvictedWhileWriting() {
	frame := make([]byte, 1<<20)
	s.manager = NewHubManager(func(model.Event) ([]byte, error) {
		return frame, nil
	}, testutil.NopLogger())

	registered := make(chan *Client, 1)
	ended := make(chan model.PlayerID, 1)
	srv := s.serveClient(registered, ended)
	defer srv.Close()

	// The peer never reads, so the write pump blocks once the socket buffers fill
	conn, c := s.dialAndRegister(srv, registered)
	defer func() { _ = conn.Close() }()
	s.manager.Subscribe("GAME01", c.ID())

	evicted := false
	for range 4 * sendBufferSize {
		s.manager.Broadcast("GAME01", model.Event{Type: model.EventMatchUpdated})
		if c.closed() {
			evicted = true
			break
		}
	}
	s.Require().True(evicted, "slow client was not disconnected")

	select {
	case id := <-ended:
		s.Equal(c.ID(), id)
	case <-time.After(5 * time.Second):
		s.FailNow("session did not end after eviction")
	}
	s.Equal(0, s.manager.ClientCount())
}

func (s *HubSuite) TestCloseSendsCloseFrame() {
	registered := make(chan *Client, 1)
	ended := make(chan model.PlayerID, 1)
	srv := s.serveClient(registered, ended)
	defer srv.Close()

	conn, c := s.dialAndRegister(srv, registered)
	defer func() { _ = conn.Close() }()

	c.Close()
	c.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	s.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error %v", err)

	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		s.Fail("session did not end after close")
	}
}

func (s *HubSuite) TestShutdownRefusesSessionsAndWaits() {
	registered := make(chan *Client, 1)
	ended := make(chan model.PlayerID, 1)
	srv := s.serveClient(registered, ended)
	defer srv.Close()

	conn, _ := s.dialAndRegister(srv, registered)
	defer func() { _ = conn.Close() }()

	s.manager.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.manager.Wait(ctx))
	s.Equal(0, s.manager.ClientCount())

	_, ok := s.manager.BeginSession()
	s.False(ok)
}
