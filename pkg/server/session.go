package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/binding"
	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/events"
	"github.com/vango-dev/lazyload/pkg/lazyload"
	lzmw "github.com/vango-dev/lazyload/pkg/middleware"
)

const sendBufferSize = 256

// Session is one WebSocket connection with its page mirror and engine.
type Session struct {
	ID string

	server *Server
	conn   *websocket.Conn
	logger *slog.Logger
	parser *binding.Parser

	send      chan ServerMessage
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	mu        sync.Mutex
	doc       *dom.Document
	engine    *lazyload.Engine
	unobserve func()
}

func newSession(s *Server, conn *websocket.Conn) *Session {
	id := newSessionID()
	return &Session{
		ID:     id,
		server: s,
		conn:   conn,
		logger: s.logger.With("session_id", id),
		parser: binding.NewParser(),
		send:   make(chan ServerMessage, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Document returns the current page mirror, or nil before mount.
func (s *Session) Document() *dom.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Engine returns the current engine, or nil before mount.
func (s *Session) Engine() *lazyload.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether the session has ended.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Close ends the session: it closes the engine and the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)

		s.mu.Lock()
		s.teardownLocked()
		s.mu.Unlock()

		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.server.sessions.Remove(s.ID)
		lzmw.RecordSessionDestroy()
		s.logger.Debug("session closed")
	})
}

// ReadLoop reads client messages until the connection closes.
func (s *Session) ReadLoop() {
	defer s.Close()

	pongWait := s.server.config.PongWait
	s.conn.SetReadLimit(s.server.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				lzmw.RecordWebSocketError("read")
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := DecodeClientMessage(data)
		if err != nil {
			s.logger.Warn("invalid message", "error", err)
			s.Send(errorMessage(err, ""))
			continue
		}
		s.Handle(msg)
	}
}

// WriteLoop writes queued messages and keepalive pings until the session ends.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.server.config.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Error("write error", "error", err)
				lzmw.RecordWebSocketError("write")
				s.Close()
				return
			}
			if msg.Type == MsgPatch {
				lzmw.RecordPatches(1)
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// Send queues msg for the client. It returns without sending once the
// session has ended.
func (s *Session) Send(msg ServerMessage) {
	select {
	case s.send <- msg:
	case <-s.done:
	}
}

// Handle applies one client message.
func (s *Session) Handle(msg *ClientMessage) {
	if err := msg.Validate(); err != nil {
		s.Send(errorMessage(err, msg.HID))
		return
	}
	if msg.Type == MsgMount {
		s.mount(msg)
		return
	}

	doc := s.Document()
	if doc == nil {
		s.Send(errorMessage(lzerrors.New("E060").WithDetail(msg.Type+" before mount"), ""))
		return
	}

	switch msg.Type {
	case MsgScroll:
		doc.ScrollTo(msg.ScrollX, msg.ScrollY)

	case MsgResize:
		if msg.Client != nil {
			doc.SetClientSize(*msg.Client)
		}
		doc.Resize(*msg.Viewport)

	case MsgLayout:
		for hid, box := range msg.Boxes {
			n, ok := doc.ByHID(hid)
			if !ok {
				s.Send(errorMessage(unknownElement(hid), hid))
				continue
			}
			n.SetBox(box)
		}
		s.flag()

	case MsgStyle:
		n, ok := doc.ByHID(msg.HID)
		if !ok {
			s.Send(errorMessage(unknownElement(msg.HID), msg.HID))
			return
		}
		if msg.Display != nil {
			n.SetStyle("display", *msg.Display)
		}
		if msg.Visibility != nil {
			n.SetStyle("visibility", *msg.Visibility)
		}
		s.flag()
	}
}

// mount replaces the page mirror and binds every element with a lazyload
// declaration.
func (s *Session) mount(msg *ClientMessage) {
	doc := dom.NewDocument(*msg.Viewport)
	if msg.Client != nil {
		doc.SetClientSize(*msg.Client)
	}

	nodes := make([]*dom.Node, 0, len(msg.Elements))
	for _, el := range msg.Elements {
		n := doc.CreateElementWithHID(el.Tag, el.HID)
		for k, v := range el.Attrs {
			_ = n.SetAttr(k, v)
		}
		if el.ID != "" {
			_ = n.SetAttr("id", el.ID)
		}
		n.SetBox(el.Box)
		n.SetStyle("display", el.Display)
		n.SetStyle("visibility", el.Visibility)

		parent := doc.Body()
		if el.Parent != "" {
			p, ok := doc.ByHID(el.Parent)
			if !ok {
				s.Send(errorMessage(unknownElement(el.Parent), el.HID))
			} else {
				parent = p
			}
		}
		if err := parent.AppendChild(n); err != nil {
			s.Send(errorMessage(err, el.HID))
			continue
		}
		nodes = append(nodes, n)
	}
	if msg.ScrollX != 0 || msg.ScrollY != 0 {
		doc.ScrollTo(msg.ScrollX, msg.ScrollY)
	}

	engine := lazyload.New(doc, s.engineOptions()...)

	s.mu.Lock()
	s.teardownLocked()
	s.doc = doc
	s.engine = engine
	s.unobserve = doc.Observe(func(m dom.Mutation) {
		s.Send(ServerMessage{
			Type:   MsgPatch,
			HID:    m.Node.HID(),
			Name:   m.Name,
			Value:  m.Value,
			Remove: m.Removed,
		})
	})
	s.mu.Unlock()

	bound := 0
	for i, el := range msg.Elements {
		if el.Bind == "" {
			continue
		}
		if s.bind(engine, nodes[i], el.Bind) {
			bound++
		}
	}
	s.logger.Debug("page mounted", "elements", len(nodes), "bound", bound)
}

// bind parses decl and binds n. Failures are reported to the client and do
// not stop the rest of the page.
func (s *Session) bind(engine *lazyload.Engine, n *dom.Node, decl string) bool {
	names, err := s.parser.Bindings(decl, nil)
	if err != nil {
		s.Send(errorMessage(err, n.HID()))
		return false
	}
	if !contains(names, binding.Key) {
		return false
	}

	opts, err := s.parser.Parse(decl, nil)
	if err != nil {
		s.Send(errorMessage(err, n.HID()))
		return false
	}
	opts = s.server.applyDefaults(opts)

	if id := n.ID(); id != "" {
		hid := n.HID()
		engine.On(id, events.Load, func(events.Event) {
			s.Send(ServerMessage{Type: MsgEvent, HID: hid, ID: id, Name: events.Load})
		})
	}

	if _, err := engine.Init(context.Background(), n, opts); err != nil {
		s.Send(errorMessage(err, n.HID()))
		return false
	}
	return true
}

func (s *Session) engineOptions() []lazyload.Option {
	opts := append([]lazyload.Option{}, s.server.engineOptions...)
	opts = append(opts,
		lazyload.WithLogger(s.logger),
		lazyload.WithErrorHandler(func(b *lazyload.Binding, err error) {
			hid := ""
			if n, ok := b.Element().(*dom.Node); ok {
				hid = n.HID()
			}
			s.logger.Error("lazy update failed", "error", err, "hid", hid)
			s.Send(errorMessage(err, hid))
		}),
	)
	if mw := s.server.updateMiddleware(); len(mw) > 0 {
		opts = append(opts, lazyload.WithMiddleware(mw...))
	}
	return opts
}

// flag re-arms the trigger after a layout or style change.
func (s *Session) flag() {
	if e := s.Engine(); e != nil {
		e.FlagForLoadCheck()
	}
}

func (s *Session) teardownLocked() {
	if s.unobserve != nil {
		s.unobserve()
		s.unobserve = nil
	}
	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
	}
}

func unknownElement(hid string) error {
	return lzerrors.New("E061").WithDetail("No element with handle " + quote(hid) + " was mounted.")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}
