package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"palletvox.app/internal/editor"
	"palletvox.app/internal/encoding"
	"palletvox.app/internal/grid"
	"palletvox.app/internal/observerproto"
	"palletvox.app/internal/persistence/store"
)

func newSession(d grid.Dimensions, srv *Server) *editor.Session {
	p := store.Palette{ID: "p-9", Name: "Bay 9", Dimensions: d, Cubes: grid.FillAll(d)}
	return editor.NewSession(p, editor.Config{OnChange: srv.Publish})
}

func TestStateHandler(t *testing.T) {
	srv := NewServer(nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var e observerproto.ErrorMsg
	_ = json.NewDecoder(resp.Body).Decode(&e)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || e.Code != observerproto.ErrNotFound {
		t.Fatalf("status=%d code=%q", resp.StatusCode, e.Code)
	}

	d := grid.Dimensions{Length: 2, Width: 2, Height: 2}
	s := newSession(d, srv)
	s.Remove(grid.Coord{X: 0, Y: 0, Z: 0})

	resp, err = http.Get(ts.URL + "/v1/state?cubes=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var st observerproto.StateMsg
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Type != observerproto.TypeState || st.PaletteID != "p-9" || st.Stats.Present != 6 || st.Stats.FillRateText != "75.0" {
		t.Fatalf("unexpected state: %+v", st)
	}
	occ, err := encoding.DecodeOccupancy(st.Dimensions, st.Occupancy)
	if err != nil || occ.Len() != 6 {
		t.Fatalf("occupancy: %v len=%d", err, occ.Len())
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/state", strings.NewReader("{}"))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST status=%d", resp2.StatusCode)
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/observe", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
}

func TestObserve_StreamsStateAfterSubscribe(t *testing.T) {
	srv := NewServer(nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	d := grid.Dimensions{Length: 2, Width: 2, Height: 2}
	s := newSession(d, srv)

	conn := dial(t, ts)
	defer conn.Close()
	sub := observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var st observerproto.StateMsg
	readJSON(t, conn, &st)
	if st.Stats.Present != 8 || st.Occupancy != "" {
		t.Fatalf("initial state: %+v", st)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Remove(grid.Coord{X: 1, Y: 1, Z: 1})
	readJSON(t, conn, &st)
	if st.Stats.Present != 7 {
		t.Fatalf("present=%d want 7", st.Stats.Present)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"EDIT"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var e observerproto.ErrorMsg
	readJSON(t, conn, &e)
	if e.Type != observerproto.TypeError || e.Code != observerproto.ErrBadRequest {
		t.Fatalf("expected read-only error, got %+v", e)
	}
}

func TestObserve_RejectsBadHandshake(t *testing.T) {
	srv := NewServer(nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "HELLO"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestPublish_DropsForSlowClients(t *testing.T) {
	srv := NewServer(nil)
	c := &client{out: make(chan []byte, 1)}
	srv.clients[1] = c

	d := grid.Dimensions{Length: 1, Width: 1, Height: 3}
	s := newSession(d, srv)
	s.Remove(grid.Coord{Z: 2})
	s.Remove(grid.Coord{Z: 1})
	if srv.Dropped() == 0 {
		t.Fatalf("expected drops with a full queue")
	}
	if len(c.out) != 1 {
		t.Fatalf("queue len=%d", len(c.out))
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"10.0.0.7:80":    false,
		"garbage":        false,
	} {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v want %v", addr, got, want)
		}
	}
	if !observerproto.IsKnownCode(observerproto.ErrInternal) || observerproto.IsKnownCode("E_NOPE") {
		t.Fatalf("IsKnownCode mismatch")
	}
}
