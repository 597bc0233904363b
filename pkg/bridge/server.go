package bridge

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/zoobzio/capitan"

	clientdist "github.com/vango-dev/dnd/client/dist"
	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/upload"
)

// SetupFunc creates the controllers of a new session. It runs once the
// session's document mirror holds the page snapshot.
type SetupFunc func(s *Session) error

// Server mirrors browser pages into memdom documents and runs the drag
// and drop controllers against them. Routes, relative to BasePath:
//
//	GET  /ws         websocket endpoint
//	GET  /client.js  browser client
//	POST /upload     file upload, when a store is configured
type Server struct {
	config   Config
	setup    SetupFunc
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a server. setup may be nil, in which case sessions govern
// nothing.
func New(setup SetupFunc, opts ...Option) *Server {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.BasePath = "/" + strings.Trim(config.BasePath, "/")
	if config.BasePath == "/" {
		config.BasePath = ""
	}

	s := &Server{
		config:   config,
		setup:    setup,
		logger:   config.Logger.With("component", "bridge"),
		sessions: make(map[string]*Session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.config.checkOrigin,
	}
	return s
}

// Routes mounts the bridge endpoints on r.
func (s *Server) Routes(r chi.Router) {
	mount := func(r chi.Router) {
		r.Get("/ws", s.HandleWebSocket)
		r.Get("/client.js", serveClient)
		if s.config.Store != nil {
			r.Method(http.MethodPost, "/upload", upload.HandlerWithConfig(s.config.Store, s.config.Limits))
		}
	}
	if s.config.BasePath == "" {
		mount(r)
		return
	}
	r.Route(s.config.BasePath, mount)
}

// Handler returns a router serving only the bridge endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

func serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(clientdist.DndJS)
}

// HandleWebSocket upgrades the request and runs a session until the
// connection closes. The first frame must be a page snapshot.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		s.logger.Warn("handshake read failed", "error", err)
		conn.Close()
		return
	}

	msg, err := decodeClientMessage(data)
	if err == nil && msg.Type != TypeSnapshot {
		err = errors.New(errors.ProtocolNoSnapshot).WithDetailf("got %q", msg.Type)
	}
	if err != nil {
		s.rejectHandshake(r, conn, errors.FromError(err, errors.ProtocolNoSnapshot))
		return
	}

	session := newSession(s, conn, msg.Elements)
	if s.setup != nil {
		if err := s.setup(session); err != nil {
			session.fail(errors.FromError(err, errors.ProtocolSetup))
			session.Close()
			return
		}
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	session.sendReady()
	session.logger.Info("session started",
		"elements", len(msg.Elements),
		"drops", len(session.drops),
		"drags", len(session.drags))
	capitan.Emit(session.ctx, SessionStarted,
		KeySession.Field(session.ID),
		KeyElements.Field(len(msg.Elements)))

	session.ReadLoop()
}

func (s *Server) rejectHandshake(r *http.Request, conn *websocket.Conn, err *errors.Error) {
	s.logger.Warn("handshake rejected", "error", err.Error())
	capitan.Emit(r.Context(), ProtocolError, KeyError.Field(err.Error()))

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	conn.WriteJSON(ServerMessage{Type: TypeError, Error: err})
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Code),
		time.Now().Add(s.config.WriteTimeout))
	conn.Close()
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session returns an open session by id.
func (s *Server) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Close closes every open session.
func (s *Server) Close() error {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		open = append(open, session)
	}
	s.mu.Unlock()

	for _, session := range open {
		session.Close()
	}
	return nil
}

func (s *Server) remove(session *Session) {
	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
}

func (s *Server) uploadURL() string {
	if s.config.Store == nil {
		return ""
	}
	return s.config.BasePath + "/upload"
}
