package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"palletvox.app/internal/editor"
	"palletvox.app/internal/observerproto"
)

type client struct {
	out   chan []byte
	cubes bool
}

// Server is a read-only feed of editor frames for loopback observers. Publish
// never blocks: a client whose queue is full misses that message.
type Server struct {
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]*client
	latest  *observerproto.StateMsg
	dropped atomic.Int64
}

func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		log:     logger,
		clients: map[uint64]*client{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			// Loopback only; see isLoopbackRemote.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/state", s.StateHandler())
	mux.HandleFunc("/v1/observe", s.WSHandler())
	return mux
}

func StateFromFrame(f *editor.Frame) observerproto.StateMsg {
	eye, target := f.Transform.Eye, f.Transform.Target
	return observerproto.StateMsg{
		Type:            observerproto.TypeState,
		ProtocolVersion: observerproto.Version,
		Seq:             f.Seq,
		PaletteID:       f.PaletteID,
		Name:            f.Name,
		Dimensions:      f.Dimensions,
		Stats:           f.Stats,
		View:            string(f.View),
		Eye:             [3]float64{eye.X(), eye.Y(), eye.Z()},
		Target:          [3]float64{target.X(), target.Y(), target.Z()},
		Hover:           string(f.Hover),
		Confirming:      f.Confirming,
		Occupancy:       f.Occupancy,
	}
}

// Publish records f as the current state and fans it out to subscribers.
func (s *Server) Publish(f *editor.Frame) {
	msg := StateFromFrame(f)
	full, err := json.Marshal(msg)
	if err != nil {
		s.log.Printf("observer: marshal state: %v", err)
		return
	}
	lite := msg
	lite.Occupancy = ""
	liteB, _ := json.Marshal(lite)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &msg
	for _, c := range s.clients {
		b := liteB
		if c.cubes {
			b = full
		}
		select {
		case c.out <- b:
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients is the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped counts messages skipped for slow observers.
func (s *Server) Dropped() int64 { return s.dropped.Load() }

func (s *Server) current() (observerproto.StateMsg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return observerproto.StateMsg{}, false
	}
	return *s.latest, true
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func (s *Server) StateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(rw, http.StatusMethodNotAllowed, observerproto.NewError(observerproto.ErrBadRequest, "read-only feed"))
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			writeJSON(rw, http.StatusForbidden, observerproto.NewError(observerproto.ErrForbidden, "loopback only"))
			return
		}
		st, ok := s.current()
		if !ok {
			writeJSON(rw, http.StatusNotFound, observerproto.NewError(observerproto.ErrNotFound, "no palette open"))
			return
		}
		if r.URL.Query().Get("cubes") != "1" {
			st.Occupancy = ""
		}
		writeJSON(rw, http.StatusOK, st)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(raw, &sub); err != nil || sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		id := s.nextID.Add(1)
		c := &client{out: make(chan []byte, 16), cubes: sub.Cubes}
		s.mu.Lock()
		s.clients[id] = c
		if s.latest != nil {
			st := *s.latest
			if !c.cubes {
				st.Occupancy = ""
			}
			if b, err := json.Marshal(st); err == nil {
				c.out <- b
			}
		}
		s.mu.Unlock()
		s.log.Printf("observer O%d connected from %s", id, r.RemoteAddr)
		defer func() {
			s.mu.Lock()
			delete(s.clients, id)
			s.mu.Unlock()
			s.log.Printf("observer O%d gone", id)
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: the feed accepts nothing after SUBSCRIBE.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			e := observerproto.NewError(observerproto.ErrBadRequest, fmt.Sprintf("read-only feed, ignored %d bytes", len(raw)))
			b, _ := json.Marshal(e)
			select {
			case c.out <- b:
			default:
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
