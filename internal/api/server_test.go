package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/tetrasim/internal/sim"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Seed = 42
	s := NewServer(sim.NewRunner(sim.New(cfg)), 0, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: invalid json: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestRootAndHealth(t *testing.T) {
	_, ts := newTestServer(t)

	code, body := do(t, ts, "GET", "/", "")
	if code != 200 || body["version"] != Version {
		t.Errorf("root: %d %v", code, body)
	}

	code, body = do(t, ts, "GET", "/health", "")
	if code != 200 || body["status"] != "healthy" || body["simulation_active"] != false {
		t.Errorf("health: %d %v", code, body)
	}
}

func TestCreateAndQuery(t *testing.T) {
	_, ts := newTestServer(t)

	code, body := do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"p1","parameters":{"base_frequency":2}}`)
	if code != 200 {
		t.Fatalf("create: %d %v", code, body)
	}
	params := body["parameters"].(map[string]any)
	if params["base_frequency"] != 2.0 || params["damping_factor"] != 0.98 {
		t.Errorf("unexpected parameters %v", params)
	}

	code, body = do(t, ts, "POST", "/api/oscillators/create", "")
	if code != 200 || !strings.HasPrefix(body["particle_id"].(string), "particle_") {
		t.Errorf("create without body: %d %v", code, body)
	}

	code, body = do(t, ts, "GET", "/api/oscillators", "")
	if code != 200 || body["oscillator_count"] != 2.0 {
		t.Errorf("list: %d %v", code, body)
	}

	code, body = do(t, ts, "GET", "/api/oscillators/p1", "")
	if code != 200 || body["particle_id"] != "p1" {
		t.Errorf("get: %d %v", code, body)
	}
	state := body["state"].(map[string]any)
	if state["w2_energy"] != 1.0 {
		t.Errorf("expected initial w2 of 1, got %v", state)
	}
}

func TestCreateErrors(t *testing.T) {
	_, ts := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"particle_id":`, http.StatusBadRequest},
		{"unknown field", `{"bogus":1}`, http.StatusBadRequest},
		{"bad damping", `{"particle_id":"x","parameters":{"damping_factor":3}}`, http.StatusBadRequest},
		{"negative frequency", `{"particle_id":"y","parameters":{"base_frequency":-1}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, body := do(t, ts, "POST", "/api/oscillators/create", tc.body); code != tc.want {
				t.Errorf("got %d %v, want %d", code, body, tc.want)
			}
		})
	}

	do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"dup"}`)
	if code, _ := do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"dup"}`); code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", code)
	}
}

func TestRemove(t *testing.T) {
	_, ts := newTestServer(t)
	do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"p1"}`)

	if code, body := do(t, ts, "DELETE", "/api/oscillators/p1", ""); code != 200 || body["particle_id"] != "p1" {
		t.Errorf("remove: %d %v", code, body)
	}
	if code, body := do(t, ts, "DELETE", "/api/oscillators/p1", ""); code != 404 || body["detail"] != "Oscillator not found" {
		t.Errorf("second remove: %d %v", code, body)
	}
	if code, _ := do(t, ts, "GET", "/api/oscillators/p1", ""); code != 404 {
		t.Errorf("get removed: %d", code)
	}
}

func TestLifecycle(t *testing.T) {
	s, ts := newTestServer(t)
	do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"p1"}`)

	if code, body := do(t, ts, "POST", "/api/simulation/start", ""); code != 200 || body["running"] != true {
		t.Errorf("start: %d %v", code, body)
	}
	s.Runner.Do(func(c *sim.Controller) {
		for i := 0; i < 5; i++ {
			c.Step()
		}
	})

	_, body := do(t, ts, "GET", "/api/simulation/state", "")
	if body["is_running"] != true || body["oscillator_count"] != 1.0 {
		t.Errorf("state: %v", body)
	}
	if body["simulation_time"].(float64) <= 0 {
		t.Error("expected simulation time to advance")
	}

	_, body = do(t, ts, "GET", "/api/status", "")
	if body["particle_count"] != 1.0 || body["simulation_running"] != true {
		t.Errorf("status: %v", body)
	}

	if _, body := do(t, ts, "POST", "/api/simulation/stop", ""); body["running"] != false {
		t.Errorf("stop: %v", body)
	}

	do(t, ts, "POST", "/api/simulation/reset", "")
	_, body = do(t, ts, "GET", "/api/simulation/state", "")
	if body["oscillator_count"] != 0.0 || body["simulation_time"] != 0.0 {
		t.Errorf("after reset: %v", body)
	}
}

func TestConfigClamps(t *testing.T) {
	_, ts := newTestServer(t)

	code, body := do(t, ts, "POST", "/api/simulation/config", `{"global_coupling":5,"environmental_noise":0.5,"update_rate":500}`)
	if code != 200 {
		t.Fatalf("config: %d %v", code, body)
	}
	cfg := body["config"].(map[string]any)
	if cfg["global_coupling"] != 1.0 || cfg["environmental_noise"] != 0.1 || cfg["update_rate"] != 120.0 {
		t.Errorf("unexpected clamped config %v", cfg)
	}

	if code, _ := do(t, ts, "POST", "/api/simulation/config", `{"update_rate":"fast"}`); code != 400 {
		t.Errorf("expected 400 for bad type, got %d", code)
	}
}

func TestHistory(t *testing.T) {
	s, ts := newTestServer(t)
	do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"p1"}`)
	s.Runner.Do(func(c *sim.Controller) {
		c.Start()
		for i := 0; i < 150; i++ {
			c.Step()
		}
	})

	cases := []struct {
		query string
		want  float64
	}{
		{"", 100},
		{"?last_n=10", 10},
		{"?last_n=0", 150},
		{"?last_n=1000", 150},
	}
	for _, tc := range cases {
		code, body := do(t, ts, "GET", "/api/oscillators/p1/history"+tc.query, "")
		if code != 200 || body["history_length"] != tc.want {
			t.Errorf("history%s: %d length=%v, want %v", tc.query, code, body["history_length"], tc.want)
		}
	}

	if code, _ := do(t, ts, "GET", "/api/oscillators/p1/history?last_n=abc", ""); code != 400 {
		t.Errorf("expected 400 for bad last_n, got %d", code)
	}
	if code, _ := do(t, ts, "GET", "/api/oscillators/nope/history", ""); code != 404 {
		t.Errorf("expected 404 for unknown id, got %d", code)
	}
}

func TestVisualizationAndAnalytics(t *testing.T) {
	_, ts := newTestServer(t)

	_, body := do(t, ts, "GET", "/api/analytics/system", "")
	if body["message"] != "No oscillators in simulation" {
		t.Errorf("empty analytics: %v", body)
	}

	do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"a"}`)
	do(t, ts, "POST", "/api/oscillators/create", `{"particle_id":"b"}`)

	_, body = do(t, ts, "GET", "/api/visualization/data", "")
	particles := body["particles"].([]any)
	if len(particles) != 2 {
		t.Fatalf("expected 2 particles, got %d", len(particles))
	}
	first := particles[0].(map[string]any)
	if first["id"] != "a" || first["color_intensity"] != 0.5 {
		t.Errorf("unexpected frame %v", first)
	}

	_, body = do(t, ts, "GET", "/api/analytics/system", "")
	dist := body["stability_distribution"].(map[string]any)
	total := dist["high_stability"].(float64) + dist["medium_stability"].(float64) + dist["low_stability"].(float64)
	if total != 2 {
		t.Errorf("stability distribution should count 2, got %v", dist)
	}
	if _, ok := body["dimensional_statistics"].(map[string]any)["w4_mass"]; !ok {
		t.Error("expected w4_mass statistics")
	}
}

func TestCORS(t *testing.T) {
	s := NewServer(sim.NewRunner(sim.New(sim.DefaultConfig())), 0, []string{"https://app.example"})
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/simulation/start", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight: got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Error("expected allowed origin header")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unexpected allow header for unlisted origin")
	}
}

func TestWebSocket(t *testing.T) {
	s, ts := newTestServer(t)
	s.Runner.Do(func(c *sim.Controller) {
		c.CreateOscillator("p1", nil)
		c.Start()
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "initial_state" {
		t.Fatalf("expected initial_state, got %s", msg.Type)
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "pong" {
		t.Fatalf("expected pong, got %s", msg.Type)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Runner.Run(ctx)

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "simulation_update" {
		t.Fatalf("expected simulation_update, got %s", msg.Type)
	}
	var frame sim.Visualization
	if err := json.Unmarshal(msg.Data, &frame); err != nil || len(frame.Particles) != 1 {
		t.Errorf("unexpected frame %s: %v", msg.Data, err)
	}
}

func TestWebSocketSilentClientStaysConnected(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Seed = 42
	s := NewServer(sim.NewRunner(sim.New(cfg)), 0, nil)
	s.Hub.pongWait = 200 * time.Millisecond
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	s.Runner.Do(func(c *sim.Controller) {
		c.CreateOscillator("p1", nil)
		c.Start()
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Runner.Run(ctx)

	// Only read, never write, for several pong windows.
	deadline := time.Now().Add(5 * s.Hub.pongWait)
	frames := 0
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("silent client dropped after %d frames: %v", frames, err)
		}
		frames++
	}
	if s.Hub.Len() != 1 {
		t.Errorf("expected 1 subscriber, hub has %d", s.Hub.Len())
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	h := NewHub(nil)
	slow := &subscriber{id: "slow", send: make(chan []byte, 1), done: make(chan struct{})}
	h.subscribers[slow.id] = slow

	start := time.Now()
	h.Broadcast(Message{Type: "simulation_update"})
	if h.Len() != 1 {
		t.Fatal("first frame should fit the buffer")
	}
	h.Broadcast(Message{Type: "simulation_update"})
	if h.Len() != 0 {
		t.Error("client with a full buffer should be dropped")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("broadcast blocked for %v", elapsed)
	}
	select {
	case <-slow.done:
	default:
		t.Error("dropped subscriber should be marked done")
	}
	if slow.queue([]byte("x")) {
		t.Error("queue should refuse after removal")
	}
}
