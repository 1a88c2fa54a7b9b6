package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/machenxing/bionic/internal/library"
	"github.com/machenxing/bionic/internal/settings"
	"github.com/machenxing/bionic/internal/sources"
	_ "github.com/machenxing/bionic/internal/sources/txt"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Settings == (settings.Settings{}) {
		cfg.Settings = settings.Default()
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	s.StartHub()
	return s
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	body := buf.String()
	if !strings.Contains(body, "Bionic Reader") {
		t.Error("page missing title")
	}
	if !strings.Contains(body, `value="40"`) {
		t.Error("default bold ratio not rendered into slider")
	}
}

func TestIndexNotFoundForOtherPaths(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRenderAPI(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"text": "Reading is fun", "ratio": 0.5})
	resp, err := http.Post(srv.URL+"/api/render", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.HTML != "<b>Rea</b>ding <b>i</b>s <b>f</b>un" {
		t.Errorf("HTML = %q", out.HTML)
	}
	if out.Ratio != 0.5 {
		t.Errorf("Ratio = %v", out.Ratio)
	}
}

func TestRenderAPIDefaultsRatio(t *testing.T) {
	st := settings.Default()
	st.BoldRatio = 50
	s := newTestServer(t, Config{Settings: st})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"text": "Reading"})
	resp, err := http.Post(srv.URL+"/api/render", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want settings default 0.5", out.Ratio)
	}
	if out.HTML != "<b>Rea</b>ding" {
		t.Errorf("HTML = %q", out.HTML)
	}
}

func TestRenderAPIRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/render")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/render", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", resp.StatusCode)
	}
}

func TestRecentAPI(t *testing.T) {
	store, err := library.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	doc := &sources.Document{Title: "notes", Path: filepath.Join(t.TempDir(), "notes.txt"), Format: "txt", Text: "hello"}
	if _, err := store.Add(doc); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, Config{Library: store})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/recent")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []recentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Title != "notes" || entries[0].Format != "txt" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestRecentAPIWithoutLibrary(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/recent")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var entries []recentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries without a library", len(entries))
	}
}

func TestRecentAPIRejectsBadLimit(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/recent?limit=-3")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func dialWS(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srvURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading websocket message: %v", err)
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshaling %s: %v", data, err)
	}
	return msg
}

func TestWebSocketSession(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn := dialWS(t, srv.URL)

	hello := readMessage(t, conn)
	if hello.Type != "session" {
		t.Fatalf("first message type = %q, want session", hello.Type)
	}
	if hello.Session == "" {
		t.Error("session ID is empty")
	}
	if hello.Ratio != 0.4 {
		t.Errorf("initial ratio = %v, want default 0.4", hello.Ratio)
	}

	if err := conn.WriteJSON(map[string]any{"type": "set_text", "text": "Reading is fun"}); err != nil {
		t.Fatal(err)
	}
	render := readMessage(t, conn)
	if render.Type != "render" {
		t.Fatalf("type = %q, want render", render.Type)
	}
	if render.HTML != "<b>Re</b>ading <b>i</b>s <b>f</b>un" {
		t.Errorf("HTML = %q", render.HTML)
	}

	if err := conn.WriteJSON(map[string]any{"type": "set_ratio", "ratio": 0.9}); err != nil {
		t.Fatal(err)
	}
	render = readMessage(t, conn)
	if render.Ratio != 0.9 {
		t.Errorf("ratio = %v, want 0.9", render.Ratio)
	}
	if render.HTML != "<b>Readin</b>g <b>i</b>s <b>fu</b>n" {
		t.Errorf("HTML at 0.9 = %q", render.HTML)
	}
}

func TestWebSocketLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(path, []byte("Once upon a time"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := library.Open(filepath.Join(dir, "library.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	doc, err := sources.Extract(path, sources.Options{})
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.Add(doc)
	if err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, Config{Library: store})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	readMessage(t, conn) // session hello

	if err := conn.WriteJSON(map[string]any{"type": "load_document", "id": id}); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "render" {
		t.Fatalf("type = %q (%s), want render", msg.Type, msg.Message)
	}
	if msg.Title != "story" {
		t.Errorf("title = %q", msg.Title)
	}
	if !strings.Contains(msg.HTML, "<b>O</b>nce") {
		t.Errorf("HTML = %q", msg.HTML)
	}
}

func TestWebSocketUnknownMessage(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	readMessage(t, conn) // session hello

	if err := conn.WriteJSON(map[string]any{"type": "reticulate"}); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("type = %q, want error", msg.Type)
	}
	if !strings.Contains(msg.Message, "reticulate") {
		t.Errorf("message = %q", msg.Message)
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn1 := dialWS(t, srv.URL)
	conn2 := dialWS(t, srv.URL)
	readMessage(t, conn1) // session hello
	readMessage(t, conn2)

	s.hub.Broadcast(serverMessage{Type: "recent_updated"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readMessage(t, conn)
		if msg.Type != "recent_updated" {
			t.Errorf("client %d got type %q, want recent_updated", i+1, msg.Type)
		}
		if msg.Timestamp == "" {
			t.Errorf("client %d broadcast has no timestamp", i+1)
		}
	}
}

func TestLoadDocumentNotifiesOtherTabs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(path, []byte("Once upon a time"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := library.Open(filepath.Join(dir, "library.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	doc, err := sources.Extract(path, sources.Options{})
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.Add(doc)
	if err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, Config{Library: store})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	loader := dialWS(t, srv.URL)
	observer := dialWS(t, srv.URL)
	readMessage(t, loader) // session hello
	readMessage(t, observer)

	if err := loader.WriteJSON(map[string]any{"type": "load_document", "id": id}); err != nil {
		t.Fatal(err)
	}

	// The loading tab gets its render first, then the shared notice.
	if msg := readMessage(t, loader); msg.Type != "render" {
		t.Errorf("loader first message type = %q, want render", msg.Type)
	}
	if msg := readMessage(t, loader); msg.Type != "recent_updated" {
		t.Errorf("loader second message type = %q, want recent_updated", msg.Type)
	}

	// The other tab only gets the notice.
	if msg := readMessage(t, observer); msg.Type != "recent_updated" {
		t.Errorf("observer message type = %q, want recent_updated", msg.Type)
	}
}
