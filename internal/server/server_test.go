package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handarm/internal/gesture"
	"github.com/ayusman/handarm/internal/logging"
	"github.com/ayusman/handarm/internal/store"
)

func quietLogger() *logging.Logger {
	return logging.NewLoggerTo(io.Discard, "test")
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(quietLogger())
	t.Cleanup(h.Close)
	return h
}

type fakeToggle struct {
	mu sync.Mutex
	on bool
}

func (f *fakeToggle) Publishing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

func (f *fakeToggle) SetPublishing(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = on
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/nonexistent", "/api/metrics", "/api/sessions"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_Metrics(t *testing.T) {
	hub := newTestHub(t)
	s := New(Config{Hub: hub})

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
		return rec
	}

	if rec := get(); rec.Code != http.StatusNoContent {
		t.Errorf("before any update: status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	hub.PublishMetrics(Update{Hand: false, Timestamp: 1})
	if rec := get(); rec.Code != http.StatusNoContent {
		t.Errorf("no hand: status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	m := &gesture.Metrics{OpennessPercent: 64, OpennessState: gesture.StatePartial, Wrist: image.Pt(10, 20)}
	hub.PublishMetrics(Update{Hand: true, Metrics: m, Published: true, Timestamp: 2})

	rec := get()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Update
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !got.Hand || got.Metrics == nil || got.Metrics.OpennessPercent != 64 || !got.Published {
		t.Errorf("update = %+v", got)
	}
}

func TestServer_MetricsWebSocket(t *testing.T) {
	hub := newTestHub(t)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/metrics/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the client.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.PublishMetrics(Update{Hand: true, Metrics: &gesture.Metrics{Reach: 68}, Timestamp: 42})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	var got Update
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("bad message %s: %v", msg, err)
	}
	if got.Timestamp != 42 || got.Metrics.Reach != 68 {
		t.Errorf("update = %+v", got)
	}
}

func TestServer_Stream(t *testing.T) {
	hub := newTestHub(t)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	if hub.WantsFrames() {
		t.Fatal("no viewer yet")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s", ct)
	}
	if !hub.WantsFrames() {
		t.Error("hub should report a viewer while streaming")
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	hub.PublishFrame(jpeg)

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(boundary) != "--frame" {
		t.Fatalf("boundary = %q, err = %v", boundary, err)
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("header read error = %v", err)
		}
		if line == "\r\n" {
			break
		}
	}
	body := make([]byte, len(jpeg))
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("body read error = %v", err)
	}
	if !bytes.Equal(body, jpeg) {
		t.Errorf("frame = %x, want %x", body, jpeg)
	}
}

func TestServer_Publishing(t *testing.T) {
	toggle := &fakeToggle{on: true}
	s := New(Config{Toggle: toggle, Log: quietLogger()})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/publishing", strings.NewReader(`{"publishing":false}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	if toggle.Publishing() {
		t.Error("PUT should switch publishing off")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/publishing", nil))
	if strings.TrimSpace(rec.Body.String()) != `{"publishing":false}` {
		t.Errorf("GET body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/publishing", strings.NewReader(`nope`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d", rec.Code)
	}
}

func TestServer_Sessions(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()
	st.Sessions().Start("")

	ts := httptest.NewServer(New(Config{Store: st}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	defer resp.Body.Close()

	var listed struct {
		Sessions []store.Session `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed.Sessions) != 1 {
		t.Errorf("listed %d sessions, want 1", len(listed.Sessions))
	}
}

func TestServer_Run(t *testing.T) {
	s := New(Config{Hub: newTestHub(t)})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestNew(t *testing.T) {
	cfg := Config{StaticDir: "/some/path"}
	s := New(cfg)

	if s.config.StaticDir != cfg.StaticDir {
		t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
	}

	var _ http.Handler = s
}
