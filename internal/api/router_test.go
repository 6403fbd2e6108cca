package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"pizza-rush/internal/editor"
	"pizza-rush/internal/game"
	"pizza-rush/internal/level"
	"pizza-rush/internal/world"
)

// mockEngine satisfies EngineInterface without running the tick loop.
type mockEngine struct {
	snap       *game.GameSnapshot
	city       *world.City
	profile    game.Profile
	runs       []game.RunEntry
	exportData []byte

	purchaseOK bool
	importErr  error
	actionErr  error
	undoResult bool
	editorOn   bool

	inputs   []game.InputState
	lastRuns int
	actions  []editor.Action
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		snap: &game.GameSnapshot{
			Sequence:   7,
			TickNumber: 42,
			Timestamp:  time.Now(),
			Rider:      game.RiderSnapshot{X: 3, Z: -5, State: "grounded"},
			Obstacles:  []game.ObstacleSnapshot{{Kind: "car", X: 10, Z: 10}},
		},
		city: &world.City{
			Buildings: []level.Building{{
				Shape:    "box",
				Position: [3]float64{20, 0, 20},
				Scale:    [3]float64{8, 12, 8},
				Color:    "#334455",
			}},
			Roads:    []level.Road{{Points: [][2]float64{{-50, 0}, {50, 0}}, Width: 14}},
			Pizzeria: [2]float64{0, 0},
		},
		profile:    game.Profile{Money: 500, Upgrades: map[string]int{"speed": 1}},
		runs:       []game.RunEntry{{Key: "run-1", Score: 5200, Rank: 1}},
		exportData: []byte(`{"version":1}`),
		purchaseOK: true,
	}
}

func (m *mockEngine) GetSnapshot() *game.GameSnapshot { return m.snap }
func (m *mockEngine) ApplyInput(in game.InputState)   { m.inputs = append(m.inputs, in) }

func (m *mockEngine) Profile() game.Profile             { return m.profile }
func (m *mockEngine) PurchaseUpgrade(track string) bool { return m.purchaseOK }
func (m *mockEngine) UpgradeCost(track string) int      { return 200 }
func (m *mockEngine) TopRuns(n int) []game.RunEntry     { m.lastRuns = n; return m.runs }
func (m *mockEngine) FinishRun() string                 { return "run-9" }

func (m *mockEngine) ExportLevel(name string) ([]byte, error) { return m.exportData, nil }
func (m *mockEngine) ImportLevel(data []byte) error           { return m.importErr }
func (m *mockEngine) City() *world.City                       { return m.city }

func (m *mockEngine) EditorActive() bool { return m.editorOn }
func (m *mockEngine) EnterEditor()       { m.editorOn = true }
func (m *mockEngine) ExitEditor()        { m.editorOn = false }
func (m *mockEngine) ApplyEditorAction(a editor.Action) error {
	m.actions = append(m.actions, a)
	return m.actionErr
}
func (m *mockEngine) EditorUndo() bool { return m.undoResult }

func (m *mockEngine) EventLogStats() map[string]interface{} {
	return map[string]interface{}{"running": true}
}
func (m *mockEngine) TickCount() uint64 { return 42 }

func newTestServer(m *mockEngine) *httptest.Server {
	generous := RateLimitConfig{RequestsPerSecond: 10000, Burst: 10000, CleanupInterval: time.Minute}
	router := NewRouter(RouterConfig{
		Engine:          m,
		RateLimitConfig: &generous,
		DisableLogging:  true,
	})
	return httptest.NewServer(router)
}

// Test state endpoint returns the published snapshot as JSON
func TestGetStateReturnsSnapshot(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.Sequence != 7 {
		t.Errorf("Expected sequence 7, got %d", snap.Sequence)
	}
	if snap.Rider.State != "grounded" {
		t.Errorf("Expected rider state grounded, got %q", snap.Rider.State)
	}
}

func TestInputAcceptedAndForwarded(t *testing.T) {
	m := newMockEngine()
	srv := newTestServer(m)
	defer srv.Close()

	body := bytes.NewBufferString(`{"moveZ":1,"jump":true}`)
	resp, err := http.Post(srv.URL+"/api/input", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/input failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.StatusCode)
	}
	if len(m.inputs) != 1 {
		t.Fatalf("Expected 1 forwarded input, got %d", len(m.inputs))
	}
	if m.inputs[0].MoveZ != 1 || !m.inputs[0].Jump {
		t.Errorf("Input not forwarded intact: %+v", m.inputs[0])
	}
}

func TestInputRejectsBadJSON(t *testing.T) {
	m := newMockEngine()
	srv := newTestServer(m)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/input", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	if len(m.inputs) != 0 {
		t.Errorf("Bad input should not reach the engine, got %d", len(m.inputs))
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats failed: %v", err)
	}
	defer resp.Body.Close()

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats["tick"].(float64) != 42 {
		t.Errorf("Expected tick 42, got %v", stats["tick"])
	}
	if stats["sequence"].(float64) != 7 {
		t.Errorf("Expected sequence 7, got %v", stats["sequence"])
	}
	if stats["obstacles"].(float64) != 1 {
		t.Errorf("Expected 1 obstacle, got %v", stats["obstacles"])
	}
	if stats["eventLog"] == nil {
		t.Error("Expected eventLog stats to be present")
	}
}

func TestProfileIncludesUpgradeCosts(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/profile")
	if err != nil {
		t.Fatalf("GET /api/profile failed: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Profile      game.Profile   `json:"profile"`
		UpgradeCosts map[string]int `json:"upgradeCosts"`
		Tracks       []struct {
			ID    string `json:"id"`
			Level int    `json:"level"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if out.Profile.Money != 500 {
		t.Errorf("Expected money 500, got %d", out.Profile.Money)
	}
	if len(out.UpgradeCosts) != len(game.UpgradeTracks) {
		t.Errorf("Expected %d upgrade costs, got %d", len(game.UpgradeTracks), len(out.UpgradeCosts))
	}

	// Shop listing comes back in a stable display order with player levels
	if len(out.Tracks) != len(game.UpgradeTracks) {
		t.Fatalf("Expected %d tracks, got %d", len(game.UpgradeTracks), len(out.Tracks))
	}
	for i, tr := range game.OrderedUpgradeTracks() {
		if out.Tracks[i].ID != tr.ID {
			t.Errorf("Track %d: expected %s, got %s", i, tr.ID, out.Tracks[i].ID)
		}
	}
	if out.Tracks[0].ID != "speed" || out.Tracks[0].Level != 1 {
		t.Errorf("Expected speed at level 1 first, got %s level %d", out.Tracks[0].ID, out.Tracks[0].Level)
	}
}

func TestUpgradeValidation(t *testing.T) {
	m := newMockEngine()
	srv := newTestServer(m)
	defer srv.Close()

	post := func(body string) int {
		resp, err := http.Post(srv.URL+"/api/upgrade", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /api/upgrade failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(`{}`); code != http.StatusBadRequest {
		t.Errorf("Missing track: expected 400, got %d", code)
	}
	if code := post(`{"track":"rocket"}`); code != http.StatusBadRequest {
		t.Errorf("Unknown track: expected 400, got %d", code)
	}

	m.purchaseOK = false
	if code := post(`{"track":"speed"}`); code != http.StatusConflict {
		t.Errorf("Refused purchase: expected 409, got %d", code)
	}

	m.purchaseOK = true
	resp, err := http.Post(srv.URL+"/api/upgrade", "application/json", strings.NewReader(`{"track":"speed"}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if out["ok"] != true {
		t.Errorf("Expected ok:true, got %v", out["ok"])
	}
}

func TestRunsLimitParam(t *testing.T) {
	m := newMockEngine()
	srv := newTestServer(m)
	defer srv.Close()

	get := func(q string) {
		resp, err := http.Get(srv.URL + "/api/runs" + q)
		if err != nil {
			t.Fatalf("GET /api/runs%s failed: %v", q, err)
		}
		resp.Body.Close()
	}

	get("")
	if m.lastRuns != 10 {
		t.Errorf("Default limit: expected 10, got %d", m.lastRuns)
	}
	get("?limit=3")
	if m.lastRuns != 3 {
		t.Errorf("Expected limit 3, got %d", m.lastRuns)
	}
	get("?limit=500")
	if m.lastRuns != 10 {
		t.Errorf("Oversized limit should fall back to 10, got %d", m.lastRuns)
	}
	get("?limit=banana")
	if m.lastRuns != 10 {
		t.Errorf("Garbage limit should fall back to 10, got %d", m.lastRuns)
	}
}

func TestFinishRunReturnsKey(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/runs/finish", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/runs/finish failed: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if out["key"] != "run-9" {
		t.Errorf("Expected key run-9, got %q", out["key"])
	}
}

func TestLevelDownloadHeaders(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/level?name=downtown")
	if err != nil {
		t.Fatalf("GET /api/level failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, `filename="downtown.json"`) {
		t.Errorf("Expected attachment filename downtown.json, got %q", cd)
	}
}

func TestLevelUploadRejectsInvalid(t *testing.T) {
	m := newMockEngine()
	m.importErr = errors.New("unsupported level version 9")
	srv := newTestServer(m)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/level", "application/json", strings.NewReader(`{"version":9}`))
	if err != nil {
		t.Fatalf("POST /api/level failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if out["error"] == "" {
		t.Error("Expected an error message in the body")
	}
}

func TestLevelUploadAccepted(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/level", "application/json", strings.NewReader(`{"version":1}`))
	if err != nil {
		t.Fatalf("POST /api/level failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestMinimapServesPNG(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/minimap.png")
	if err != nil {
		t.Fatalf("GET /api/minimap.png failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	magic := make([]byte, 8)
	if _, err := io.ReadFull(resp.Body, magic); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !bytes.Equal(magic, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		t.Errorf("Response is not a PNG, got leading bytes %v", magic)
	}
}

func TestEditorRoutes(t *testing.T) {
	m := newMockEngine()
	srv := newTestServer(m)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/editor/enter", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/editor/enter failed: %v", err)
	}
	resp.Body.Close()
	if !m.editorOn {
		t.Error("Expected editor to be active after enter")
	}

	body := `{"tool":"place-building","x":10,"z":10}`
	resp, err = http.Post(srv.URL+"/api/editor/action", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/editor/action failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if len(m.actions) != 1 || m.actions[0].Tool != "place-building" {
		t.Errorf("Action not forwarded, got %+v", m.actions)
	}

	m.actionErr = errors.New("editor not active")
	resp, err = http.Post(srv.URL+"/api/editor/action", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Rejected action: expected 409, got %d", resp.StatusCode)
	}

	m.undoResult = true
	resp, err = http.Post(srv.URL+"/api/editor/undo", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/editor/undo failed: %v", err)
	}
	var undo map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&undo); err != nil {
		t.Fatalf("Failed to decode undo response: %v", err)
	}
	resp.Body.Close()
	if !undo["undone"] {
		t.Error("Expected undone:true")
	}

	resp, err = http.Post(srv.URL+"/api/editor/exit", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/editor/exit failed: %v", err)
	}
	resp.Body.Close()
	if m.editorOn {
		t.Error("Expected editor to be inactive after exit")
	}
}

func TestRootRedirectsToClient(t *testing.T) {
	srv := newTestServer(newMockEngine())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("Expected status 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/play/" {
		t.Errorf("Expected redirect to /play/, got %q", loc)
	}
}

func TestRateLimiterRejectsFlood(t *testing.T) {
	tight := RateLimitConfig{RequestsPerSecond: 1, Burst: 2, CleanupInterval: time.Minute}
	router := NewRouter(RouterConfig{
		Engine:          newMockEngine(),
		RateLimitConfig: &tight,
		DisableLogging:  true,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	got429 := false
	for i := 0; i < 10; i++ {
		resp, err := http.Get(srv.URL + "/api/state")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			got429 = true
		}
	}
	if !got429 {
		t.Error("Expected at least one 429 under a burst of 10 requests")
	}
}
