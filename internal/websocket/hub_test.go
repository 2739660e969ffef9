package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logrus.New())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_ListenerBroadcastsLineups(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	settings, err := optimizer.SettingsFor(optimizer.ProviderFanDuel, optimizer.SportNFL)
	require.NoError(t, err)

	hub.Listener("req-1").LineupGenerated(settings, optimizer.RenderedLineup{Number: 2, TotalSalary: 59000}, 3)

	event := readEvent(t, conn)
	assert.Equal(t, EventLineupGenerated, event.Type)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "fanduel", event.Provider)
	assert.Equal(t, 2, event.Index)
	assert.Equal(t, 3, event.Total)
	require.NotNil(t, event.Lineup)
	assert.Equal(t, 59000, event.Lineup.TotalSalary)
	assert.False(t, event.Timestamp.IsZero())
}

func TestHub_FilterByContest(t *testing.T) {
	hub, srv := startHub(t)
	nba := dial(t, srv, "?provider=fanduel&sport=nba")
	all := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: EventRunCompleted, Provider: "fanduel", Sport: "nfl", RunID: "nfl-run"})
	hub.Publish(Event{Type: EventRunCompleted, Provider: "fanduel", Sport: "nba", RunID: "nba-run"})

	assert.Equal(t, "nba-run", readEvent(t, nba).RunID)
	assert.Equal(t, "nfl-run", readEvent(t, all).RunID)
	assert.Equal(t, "nba-run", readEvent(t, all).RunID)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsPartialFilter(t *testing.T) {
	_, srv := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?provider=fanduel"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}
