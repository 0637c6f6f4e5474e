package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/flowdesk/pkg/buildinfo"
	"github.com/matzehuels/flowdesk/pkg/cache"
	"github.com/matzehuels/flowdesk/pkg/editor"
	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

const sample = `flowchart TD
    A[Start]
    B{Check}
    A --> B
    B -->|yes| C
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewMemoryStore()
	runner := pipeline.NewRunner(fc, nil, quietLogger())
	return New(store, runner, quietLogger(), Options{Debounce: 5 * time.Millisecond}), store
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}](t, rec)
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if body.Build.Version == "" || body.Build.Go == "" {
		t.Errorf("build = %+v", body.Build)
	}
	if got := rec.Header().Get("Server"); !strings.HasPrefix(got, "flowdesk/") {
		t.Errorf("Server header = %q", got)
	}
}

func TestFileRoutes(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	_ = store.Write(ctx, "notes.txt", "hello")

	rec := do(t, s, http.MethodPut, "/api/file/flows/order.mmd", FileContent{Content: sample})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body)
	}
	if got, _ := store.Read(ctx, "flows/order.mmd"); got != sample {
		t.Errorf("stored content = %q", got)
	}

	rec = do(t, s, http.MethodGet, "/api/file/flows/order.mmd", nil)
	fc := decode[FileContent](t, rec)
	if fc.Content != sample || fc.Size != len(sample) || fc.Extension != "mmd" {
		t.Errorf("GET = %+v", fc)
	}

	rec = do(t, s, http.MethodGet, "/api/files", nil)
	listing := decode[struct{ Files []FileInfo }](t, rec)
	if len(listing.Files) != 1 || listing.Files[0].Path != "flows/order.mmd" || listing.Files[0].Name != "order.mmd" {
		t.Errorf("flowchart listing = %+v", listing.Files)
	}

	rec = do(t, s, http.MethodGet, "/api/files?all=true", nil)
	if got := decode[struct{ Files []FileInfo }](t, rec); len(got.Files) != 2 {
		t.Errorf("all listing = %+v", got.Files)
	}

	rec = do(t, s, http.MethodGet, "/api/files/list?path=flows", nil)
	if got := decode[struct{ Files []string }](t, rec); len(got.Files) != 1 || got.Files[0] != "flows/order.mmd" {
		t.Errorf("list = %v", got.Files)
	}

	rec = do(t, s, http.MethodDelete, "/api/file/flows/order.mmd", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/file/flows/order.mmd", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Code != ferrors.ErrCodeFileNotFound {
		t.Errorf("code = %q", got.Code)
	}
}

func TestFileRoutesRejectBadPaths(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/file/a/../../secret.mmd", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Code != ferrors.ErrCodeInvalidPath {
		t.Errorf("code = %q", got.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/file/flows%2Forder.mmd", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("encoded path status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPut, "/api/file/x.mmd", "not an object")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}
}

func TestParseAndSerialize(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/parse", map[string]string{"text": sample + "    classDef x fill:#f00\n"})
	if rec.Code != http.StatusOK {
		t.Fatalf("parse status = %d: %s", rec.Code, rec.Body)
	}
	parsed := decode[ParseResponse](t, rec)
	if parsed.Stats.Nodes != 3 || parsed.Stats.Edges != 2 || parsed.Stats.Ignored != 1 {
		t.Errorf("stats = %+v", parsed.Stats)
	}
	if parsed.Hash == "" {
		t.Error("hash should be set")
	}

	rec = do(t, s, http.MethodPost, "/api/serialize", map[string]any{"graph": parsed.Graph})
	text := decode[map[string]string](t, rec)["text"]
	if !strings.HasPrefix(text, "flowchart TD\n") || !strings.Contains(text, `B -->|"yes"| C`) {
		t.Errorf("serialized text:\n%s", text)
	}

	bad := flow.Document{Nodes: []flow.NodeDoc{{ID: "has space"}}}
	rec = do(t, s, http.MethodPost, "/api/serialize", map[string]any{"graph": bad})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid graph status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/serialize", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing graph status = %d", rec.Code)
	}
}

func TestLayoutCached(t *testing.T) {
	s, _ := newTestServer(t)
	req := map[string]any{"text": sample, "layout": map[string]any{"direction": "LR"}}

	first := decode[LayoutResponse](t, do(t, s, http.MethodPost, "/api/layout", req))
	if first.Cached {
		t.Error("first layout should miss the cache")
	}
	if len(first.Layout.Positions) != 3 {
		t.Errorf("positions = %v", first.Layout.Positions)
	}
	second := decode[LayoutResponse](t, do(t, s, http.MethodPost, "/api/layout", req))
	if !second.Cached {
		t.Error("second layout should hit the cache")
	}
	for i, n := range second.Graph.Nodes {
		if n.Position != first.Graph.Nodes[i].Position {
			t.Errorf("node %s moved between runs", n.ID)
		}
	}

	rec := do(t, s, http.MethodPost, "/api/layout", map[string]any{"text": sample, "layout": map[string]any{"direction": "XY"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Code != ferrors.ErrCodeInvalidOptions {
		t.Errorf("code = %q", got.Code)
	}
}

func TestRender(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/render?format=dot", map[string]any{"text": sample})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.HasPrefix(rec.Body.String(), "digraph G {") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "pos=") {
		t.Error("rendered DOT should carry the computed layout")
	}
	if rec.Header().Get("X-Flowdesk-Cached") != "false" {
		t.Error("first render should miss the cache")
	}

	rec = do(t, s, http.MethodPost, "/api/render", map[string]any{"text": sample, "format": "mmd"})
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}

	rec = do(t, s, http.MethodPost, "/api/render", map[string]any{"text": sample, "format": "gif"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}
}

// =============================================================================
// WebSocket sessions
// =============================================================================

func dial(t *testing.T, s *Server, path string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/diagram/"+path, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func snapshotWhere(f func(editor.Snapshot) bool) func(ServerMessage) bool {
	return func(m ServerMessage) bool {
		return m.Type == MsgSnapshot && m.Snapshot != nil && f(*m.Snapshot)
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func hasNode(s editor.Snapshot, id string) bool {
	for _, n := range s.Graph.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func TestDiagramSocket(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	_ = store.Write(ctx, "flows/a.mmd", sample)
	conn := dial(t, s, "flows/a.mmd")

	first := readUntil(t, conn, snapshotWhere(func(s editor.Snapshot) bool { return !s.Stale }))
	if first.Snapshot.Mode != editor.ModeDiagram || len(first.Snapshot.Graph.Nodes) != 3 {
		t.Fatalf("initial snapshot = %+v", first.Snapshot)
	}

	send(t, conn, ClientMessage{Type: MsgChange, Change: &editor.Change{Type: editor.ChangeAddNode, ID: "D", Label: "Done"}})
	send(t, conn, ClientMessage{Type: MsgChange, Change: &editor.Change{Type: editor.ChangeConnect, Source: "C", Target: "D"}})
	laid := readUntil(t, conn, snapshotWhere(func(s editor.Snapshot) bool {
		return hasNode(s, "D") && len(s.Graph.Edges) == 3 && !s.Stale
	}))
	if !laid.Snapshot.Dirty {
		t.Error("session should be dirty after gestures")
	}

	send(t, conn, ClientMessage{Type: MsgSave})
	saved := readUntil(t, conn, snapshotWhere(func(s editor.Snapshot) bool {
		return s.Notice != nil && s.Notice.Kind == editor.NoticeSaved
	}))
	if saved.Snapshot.Dirty {
		t.Error("session should be clean after save")
	}
	content, err := store.Read(ctx, "flows/a.mmd")
	if err != nil || !strings.Contains(content, "C --> D") {
		t.Errorf("saved content = %q, %v", content, err)
	}

	send(t, conn, ClientMessage{Type: MsgMode, Mode: "text"})
	readUntil(t, conn, snapshotWhere(func(s editor.Snapshot) bool { return s.Mode == editor.ModeText }))

	send(t, conn, ClientMessage{Type: MsgChange, Change: &editor.Change{Type: editor.ChangeRemoveNode, ID: "A"}})
	rejected := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgError })
	if rejected.Code != ferrors.ErrCodeWrongMode || rejected.Request != MsgChange {
		t.Errorf("error frame = %+v", rejected)
	}

	send(t, conn, ClientMessage{Type: "bogus"})
	unknown := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgError })
	if unknown.Code != ferrors.ErrCodeUnsupported {
		t.Errorf("error frame = %+v", unknown)
	}
}

func TestDiagramSocketMissingFile(t *testing.T) {
	s, store := newTestServer(t)
	conn := dial(t, s, "new.mmd")

	msg := readUntil(t, conn, snapshotWhere(func(s editor.Snapshot) bool { return s.Notice != nil }))
	if msg.Snapshot.Notice.Kind != editor.NoticeReadFailure {
		t.Errorf("notice = %+v", msg.Snapshot.Notice)
	}

	send(t, conn, ClientMessage{Type: MsgChange, Change: &editor.Change{Type: editor.ChangeAddNode, ID: "start", Kind: flow.KindStart, Label: "Go"}})
	send(t, conn, ClientMessage{Type: MsgSave})
	readUntil(t, conn, snapshotWhere(func(s editor.Snapshot) bool {
		return s.Notice != nil && s.Notice.Kind == editor.NoticeSaved
	}))
	content, err := store.Read(context.Background(), "new.mmd")
	if err != nil || !strings.Contains(content, "start") {
		t.Errorf("created content = %q, %v", content, err)
	}
}

func TestDiagramSocketRejectsBadPath(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{"/ws/diagram/a/../../escape.mmd", "/ws/diagram/..%2Fescape.mmd"} {
		rec := do(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
			continue
		}
		if got := decode[errorResponse](t, rec); got.Code != ferrors.ErrCodeInvalidPath {
			t.Errorf("%s: code = %q", target, got.Code)
		}
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		allowed []string
		origin  string
		want    bool
	}{
		{nil, "", true},
		{nil, "http://example.com", true},
		{nil, "http://evil.test", false},
		{[]string{"http://app.test"}, "http://app.test", true},
		{[]string{"*"}, "http://evil.test", true},
	}
	for _, tt := range tests {
		s := New(storage.NewMemoryStore(), nil, quietLogger(), Options{AllowedOrigins: tt.allowed})
		r := httptest.NewRequest(http.MethodGet, "/ws/diagram/a.mmd", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := s.checkOrigin(r); got != tt.want {
			t.Errorf("allowed %v, origin %q: got %v, want %v", tt.allowed, tt.origin, got, tt.want)
		}
	}
}
