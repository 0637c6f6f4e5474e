package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/flowdesk/pkg/editor"
	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
	maxMessage = 1 << 20
)

// Client message types.
const (
	MsgChange  = "change"  // apply a gesture (diagram mode)
	MsgMode    = "mode"    // switch to "text" or "diagram"
	MsgText    = "text"    // replace the text (text mode)
	MsgSave    = "save"    // write the file
	MsgOpen    = "open"    // switch to another file
	MsgLayout  = "layout"  // lay out now
	MsgDismiss = "dismiss" // clear the notice
)

// Server message types.
const (
	MsgSnapshot = "snapshot"
	MsgError    = "error"
)

// ClientMessage is a frame sent by the browser canvas.
type ClientMessage struct {
	Type   string         `json:"type"`
	Change *editor.Change `json:"change,omitempty"`
	Mode   string         `json:"mode,omitempty"`
	Text   string         `json:"text,omitempty"`
	Path   string         `json:"path,omitempty"`
}

// ServerMessage is a frame pushed to the browser canvas. Error frames
// acknowledge a rejected client message; the notice inside the next
// snapshot is what the user sees.
type ServerMessage struct {
	Type     string           `json:"type"`
	Snapshot *editor.Snapshot `json:"snapshot,omitempty"`
	Code     ferrors.Code     `json:"code,omitempty"`
	Detail   string           `json:"detail,omitempty"`
	Request  string           `json:"request,omitempty"`
}

// socketCanvas keeps only the newest snapshot; the writer sends it when it
// gets to it, so a slow client skips intermediate states.
type socketCanvas struct {
	mu     sync.Mutex
	latest *editor.Snapshot
	notify chan struct{}
}

func newSocketCanvas() *socketCanvas {
	return &socketCanvas{notify: make(chan struct{}, 1)}
}

func (c *socketCanvas) Update(s editor.Snapshot) {
	c.mu.Lock()
	c.latest = &s
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *socketCanvas) take() *editor.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.latest
	c.latest = nil
	return s
}

// handleDiagramSocket upgrades the request and runs an editing session for
// the file named by the wildcard.
func (s *Server) handleDiagramSocket(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if err := ferrors.ValidatePath(path); err != nil {
		s.respondError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.logger.Info("session opened", "path", path, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	canvas := newSocketCanvas()
	session := editor.New(s.store, path,
		editor.WithRunner(s.runner),
		editor.WithLayout(s.opts.Layout),
		editor.WithDebounce(s.opts.Debounce),
		editor.WithCanvas(canvas),
		editor.WithLogger(s.logger.With("path", path)),
	)
	errs := make(chan ServerMessage, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx, conn, canvas, errs)
	}()

	// A missing file opens as an empty flowchart with a notice; saving
	// creates it.
	if err := session.Load(ctx); err != nil {
		s.logger.Debug("initial load", "path", path, "err", err)
	}

	s.readLoop(ctx, conn, session, errs)

	cancel()
	_ = session.Close()
	wg.Wait()
	s.logger.Info("session closed", "path", path, "remote", r.RemoteAddr)
}

// readLoop dispatches client frames until the connection fails.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, session *editor.Session, errs chan<- ServerMessage) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var saves sync.WaitGroup
	defer saves.Wait()

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msg.Type == MsgSave {
			// Saves run concurrently with further gestures; a second save
			// while one is outstanding is rejected by the session.
			saves.Add(1)
			go func() {
				defer saves.Done()
				report(errs, msg.Type, session.Save(ctx))
			}()
			continue
		}
		report(errs, msg.Type, s.dispatch(ctx, session, msg))
	}
}

func (s *Server) dispatch(ctx context.Context, session *editor.Session, msg ClientMessage) error {
	switch msg.Type {
	case MsgChange:
		if msg.Change == nil {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "change message without a change")
		}
		return session.Apply(ctx, *msg.Change)
	case MsgMode:
		mode, err := editor.ParseMode(msg.Mode)
		if err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "unknown mode %q", msg.Mode)
		}
		if mode == editor.ModeText {
			return session.EnterText(ctx)
		}
		return session.EnterDiagram(ctx)
	case MsgText:
		return session.SetText(ctx, msg.Text)
	case MsgOpen:
		if err := ferrors.ValidatePath(msg.Path); err != nil {
			return err
		}
		err := session.Open(ctx, msg.Path)
		if errors.Is(err, editor.ErrSuperseded) {
			return nil
		}
		return err
	case MsgLayout:
		return session.LayoutNow(ctx)
	case MsgDismiss:
		session.Dismiss()
		return nil
	default:
		return ferrors.New(ferrors.ErrCodeUnsupported, "unknown message type %q", msg.Type)
	}
}

func report(errs chan<- ServerMessage, request string, err error) {
	if err == nil || errors.Is(err, editor.ErrClosed) {
		return
	}
	msg := ServerMessage{
		Type:    MsgError,
		Code:    ferrors.GetCode(err),
		Detail:  ferrors.UserMessage(err),
		Request: request,
	}
	select {
	case errs <- msg:
	default:
	}
}

// writeLoop is the only writer of conn. It closes conn when it returns,
// which also ends the read loop.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, canvas *socketCanvas, errs <-chan ServerMessage) {
	defer conn.Close()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	write := func(msg ServerMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("websocket write failed", "err", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-canvas.notify:
			if snap := canvas.take(); snap != nil {
				if !write(ServerMessage{Type: MsgSnapshot, Snapshot: snap}) {
					return
				}
			}
		case msg := <-errs:
			if !write(msg) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
