package bridge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zoobzio/capitan"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/dom/memdom"
	"github.com/vango-dev/dnd/pkg/options"
	"github.com/vango-dev/dnd/pkg/upload"
)

// Session is one connected page. Its document mirrors the page's elements;
// controllers created on it see browser events replayed in arrival order,
// and their class and attribute changes are streamed back.
type Session struct {
	ID string

	server  *Server
	conn    *websocket.Conn
	doc     *memdom.Document
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time

	writeMu sync.Mutex

	// drops and drags are written during setup and read by the read loop.
	drops []namedDrop
	drags []namedDrag

	// pending is the transfer of the drag started on this page, kept from
	// dragstart to dragend so same-page drops see the source's data.
	pending *memdom.DataTransfer

	closeOnce sync.Once
	done      chan struct{}
}

type namedDrop struct {
	name string
	dc   *dnd.DropController
}

type namedDrag struct {
	name string
	dc   *dnd.DragController
}

func newSession(server *Server, conn *websocket.Conn, elements []ElementSnapshot) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      newSessionID(),
		server:  server,
		conn:    conn,
		doc:     memdom.New(),
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	s.logger = server.logger.With("session", s.ID)

	for _, snap := range elements {
		if snap.ID == "" {
			continue
		}
		tag := snap.Tag
		if tag == "" {
			tag = "div"
		}
		el := s.doc.CreateElement(tag, snap.ID, snap.Classes...)
		for name, value := range snap.Attributes {
			if name == "id" || name == "class" {
				continue
			}
			el.SetAttribute(name, value)
		}
	}

	// Registered after the snapshot is built so only controller changes
	// are streamed.
	s.doc.Observe(s.forwardMutation)
	return s
}

func newSessionID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Document returns the session's mirror of the page.
func (s *Session) Document() *memdom.Document { return s.doc }

// Context is canceled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// AddDrop registers a drop controller under name. Its events are sent to
// the browser and observed by the server's metrics, tracer and upload
// store.
func (s *Session) AddDrop(name string, dc *dnd.DropController) {
	s.drops = append(s.drops, namedDrop{name, dc})

	for _, event := range []string{dnd.EventClick, dnd.EventDragEnter, dnd.EventDragOver, dnd.EventDragLeave, dnd.EventDrop} {
		dc.OnFunc(event, s.forwardEvent(name))
	}

	config := s.server.config
	if config.Metrics != nil {
		config.Metrics.ObserveDrop(name, dc)
	}
	if config.Tracer != nil {
		config.Tracer.ObserveDrop(name, dc)
	}
	if config.Store != nil {
		sink := upload.NewSink(config.Store,
			upload.WithConfig(config.Limits),
			upload.WithContext(s.ctx),
			upload.WithLogger(s.logger.With("controller", name)))
		sink.OnSaved(func(saved upload.Saved) {
			s.send(ServerMessage{Type: TypeEmit, Controller: name, Event: EventSaved, Files: []string{saved.Name}})
		})
		sink.OnError(func(f dom.File, err error) {
			s.send(ServerMessage{Type: TypeError, Error: errors.FromError(err, errors.UploadRejected).WithDetailf("file %q", f.Name)})
		})
		sink.Attach(dc)
	}
}

// EventSaved is sent after a dropped or chosen file reaches the upload
// store.
const EventSaved = "saved"

// AddDrag registers a drag controller under name.
func (s *Session) AddDrag(name string, dc *dnd.DragController) {
	s.drags = append(s.drags, namedDrag{name, dc})

	for _, event := range []string{dnd.EventDragStart, dnd.EventDrag, dnd.EventDragEnd} {
		dc.OnFunc(event, s.forwardEvent(name))
	}

	config := s.server.config
	if config.Metrics != nil {
		config.Metrics.ObserveDrag(name, dc)
	}
	if config.Tracer != nil {
		config.Tracer.ObserveDrag(name, dc)
	}
}

func (s *Session) forwardEvent(controller string) func(*dnd.Event) {
	return func(e *dnd.Event) {
		msg := ServerMessage{Type: TypeEmit, Controller: controller, Event: e.Type}
		if e.Element != nil {
			msg.Target = e.Element.ID()
		}
		for _, f := range e.Files {
			msg.Files = append(msg.Files, f.Name)
		}
		s.send(msg)
	}
}

func (s *Session) forwardMutation(m memdom.Mutation) {
	id := m.Element.ID()
	if id == "" {
		return
	}
	s.send(ServerMessage{
		Type:    TypeAttr,
		Target:  id,
		Name:    m.Attribute,
		Value:   m.Value,
		Removed: m.Removed,
	})
}

func (s *Session) sendReady() {
	msg := ServerMessage{
		Type:        TypeReady,
		Session:     s.ID,
		InlineLimit: s.server.config.InlineLimit,
		UploadURL:   s.server.uploadURL(),
	}
	for _, d := range s.drops {
		opts := d.dc.Options()
		for _, el := range d.dc.Elements() {
			msg.Targets = append(msg.Targets, Target{
				ID:         el.ID(),
				Controller: d.name,
				Kind:       "drop",
				Click:      opts.Click,
				DropEffect: string(opts.DropEffect),
			})
		}
	}
	for _, d := range s.drags {
		opts := d.dc.Options()
		items := transferItems(opts.Data)
		for _, el := range d.dc.Elements() {
			msg.Targets = append(msg.Targets, Target{
				ID:            el.ID(),
				Controller:    d.name,
				Kind:          "drag",
				EffectAllowed: string(opts.EffectAllowed),
				Items:         items,
			})
		}
	}
	s.send(msg)
}

// transferItems returns the entries the browser writes on dragstart.
// Deferred data is only resolved on the mirror.
func transferItems(data options.Data) []Item {
	entries := data.Entries()
	if len(entries) == 0 {
		return nil
	}
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Format: e.MimeType, Data: e.Payload}
	}
	return items
}

// ReadLoop handles client frames until the connection closes.
func (s *Session) ReadLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		msg, err := decodeClientMessage(data)
		if err == nil {
			err = s.handle(msg)
		}
		if err != nil {
			s.fail(errors.FromError(err, errors.ProtocolMalformed))
		}
	}
}

func (s *Session) handle(msg *ClientMessage) error {
	switch msg.Type {
	case TypeEvent:
		return s.dispatch(msg)
	case TypeSelect:
		return s.selectFiles(msg)
	case TypeSnapshot:
		return errors.New(errors.ProtocolMalformed).WithDetail("snapshot after handshake")
	default:
		return errors.New(errors.ProtocolUnknownType).WithDetailf("%q", msg.Type)
	}
}

func (s *Session) dispatch(msg *ClientMessage) error {
	el := s.doc.GetElementByID(msg.Target)
	if el == nil {
		return errors.New(errors.ProtocolUnknownElement).WithDetailf("id %q", msg.Target)
	}

	start := time.Now()
	switch msg.Event {
	case dom.EventClick:
		el.Click()
	case dom.EventDragStart, dom.EventDrag, dom.EventDragEnd,
		dom.EventDragEnter, dom.EventDragOver, dom.EventDragLeave, dom.EventDrop:
		dt, err := s.transfer(msg)
		if err != nil {
			return err
		}
		el.Dispatch(memdom.NewDragEvent(msg.Event, dt))
		if msg.Event == dom.EventDragEnd {
			s.pending = nil
		}
	default:
		return errors.New(errors.ProtocolUnknownEvent).WithDetailf("%q", msg.Event)
	}

	capitan.Emit(s.ctx, EventDispatched,
		KeySession.Field(s.ID),
		KeyEvent.Field(msg.Event),
		KeyTarget.Field(msg.Target),
		KeyFiles.Field(len(msg.Files)),
		KeyDuration.Field(time.Since(start)))
	return nil
}

// transfer picks the payload for a replayed drag event. Files dropped from
// outside the page and items read by the browser on drop take precedence
// over a drag in progress on this page.
func (s *Session) transfer(msg *ClientMessage) (*memdom.DataTransfer, error) {
	switch msg.Event {
	case dom.EventDragStart:
		s.pending = memdom.NewDataTransfer()
		return s.pending, nil
	case dom.EventDrag, dom.EventDragEnd:
		if s.pending != nil {
			return s.pending, nil
		}
		return memdom.NewDataTransfer(), nil
	}

	if len(msg.Files) == 0 && len(msg.Items) == 0 && s.pending != nil {
		return s.pending, nil
	}
	files, err := s.files(msg.Files)
	if err != nil {
		return nil, err
	}
	dt := memdom.NewDataTransfer(files...)
	for _, it := range msg.Items {
		dt.SetData(it.Format, it.Data)
	}
	return dt, nil
}

func (s *Session) files(payloads []FilePayload) ([]dom.File, error) {
	var open func(string) (io.ReadCloser, error)
	if store := s.server.config.Store; store != nil {
		open = func(id string) (io.ReadCloser, error) {
			f, err := store.Claim(s.ctx, id)
			if err != nil {
				return nil, err
			}
			return f.Reader, nil
		}
	}

	files := make([]dom.File, 0, len(payloads))
	for _, p := range payloads {
		f, err := p.file(open)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *Session) selectFiles(msg *ClientMessage) error {
	var dc *dnd.DropController
	for _, d := range s.drops {
		if d.name == msg.Controller {
			dc = d.dc
			break
		}
	}
	if dc == nil {
		return errors.New(errors.ProtocolUnknownControl).WithDetailf("%q", msg.Controller)
	}
	chooser, ok := dc.Chooser().(*memdom.Element)
	if !ok {
		return errors.New(errors.ProtocolNoChooser).WithDetailf("%q", msg.Controller)
	}

	files, err := s.files(msg.Files)
	if err != nil {
		return err
	}
	chooser.SelectFiles(files...)

	capitan.Emit(s.ctx, EventDispatched,
		KeySession.Field(s.ID),
		KeyEvent.Field(dom.EventChange),
		KeyTarget.Field(msg.Controller),
		KeyFiles.Field(len(files)))
	return nil
}

// fail reports err to the browser. The session stays open.
func (s *Session) fail(err *errors.Error) {
	s.logger.Warn("message rejected", "error", err.Error())
	capitan.Emit(s.ctx, ProtocolError,
		KeySession.Field(s.ID),
		KeyError.Field(err.Error()))
	s.send(ServerMessage{Type: TypeError, Error: err})
}

func (s *Session) send(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("write failed", "type", msg.Type, "error", err)
	}
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		close(s.done)
		s.writeMu.Unlock()

		s.cancel()
		s.conn.Close()
		s.server.remove(s)

		if tracer := s.server.config.Tracer; tracer != nil {
			els := s.doc.Elements()
			forget := make([]dom.Element, len(els))
			for i, el := range els {
				forget[i] = el
			}
			tracer.Forget(forget...)
		}

		elapsed := time.Since(s.started)
		s.logger.Info("session closed", "duration", elapsed)
		capitan.Emit(context.Background(), SessionClosed,
			KeySession.Field(s.ID),
			KeyDuration.Field(elapsed))
	})
	return nil
}
