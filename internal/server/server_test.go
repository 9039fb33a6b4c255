package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bloxcoop/relay/internal/config"
	"github.com/bloxcoop/relay/internal/handlers"
	"github.com/bloxcoop/relay/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			PublicDir:       t.TempDir(),
			ShutdownTimeout: time.Second,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
		Game:    config.GameConfig{DefaultMaxPlayers: 4, StartingLevel: 1, StartingBerries: 50000},
	}

	srv, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoomsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Seed one room through the router, as the relay path would.
	srv.router.HandleRegisterPlayer("conn-1", map[string]interface{}{"username": "Luffy"})
	srv.router.HandleCreateRoom("conn-1", map[string]interface{}{"maxPlayers": float64(2)})

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []models.RoomSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Regexp(t, `^ROOM_[A-Z0-9]{6}$`, rooms[0].Code)
	assert.Equal(t, 1, rooms[0].Players)
	assert.Equal(t, 2, rooms[0].MaxPlayers)
	assert.Equal(t, models.StateWaiting, rooms[0].GameState)
}

func TestRoomsEndpointEmpty(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rooms []models.RoomSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	assert.Empty(t, rooms)
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.router.HandleRegisterPlayer("conn-1", map[string]interface{}{"username": "Luffy"})

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats handlers.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalPlayers)
	assert.Equal(t, 0, stats.ActiveRooms)
	assert.GreaterOrEqual(t, stats.Uptime, 0.0)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/stats", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStaticClientServed(t *testing.T) {
	srv := newTestServer(t)
	index := filepath.Join(srv.cfg.Server.PublicDir, "index.html")
	require.NoError(t, os.WriteFile(index, []byte("<html>game</html>"), 0o644))

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
