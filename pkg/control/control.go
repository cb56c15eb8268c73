// Package control serves the bidirectional control websocket of a session.
// Each connection is bound to one session and applies protocol commands to
// it, answering every command on the same connection.
package control

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/protocol"
	"github.com/teslashibe/liftviz/pkg/session"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Connection is one control client.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Connected time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Send writes msg to the client.
func (c *Connection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// LastSeen returns when the client last sent a message.
func (c *Connection) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// PublishFunc is called with a session after a command changed it, so its
// stream subscribers see the new state.
type PublishFunc func(s *session.Session)

// Hub tracks control connections and dispatches their commands.
type Hub struct {
	sessions *session.Manager
	publish  PublishFunc
	logger   *slog.Logger

	mu    sync.RWMutex
	conns map[string]*Connection
	next  atomic.Uint64

	commandsReceived atomic.Uint64
	commandsRejected atomic.Uint64
}

// NewHub creates a control hub over the session manager. publish may be nil.
func NewHub(sessions *session.Manager, publish PublishFunc) *Hub {
	return &Hub{
		sessions: sessions,
		publish:  publish,
		logger:   log.With("component", "control"),
		conns:    make(map[string]*Connection),
	}
}

// RegisterRoutes mounts /ws/control/:id on app.
func (h *Hub) RegisterRoutes(app fiber.Router) {
	app.Use("/ws/control", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control/:id", websocket.New(h.handle))
}

func (h *Hub) handle(c *websocket.Conn) {
	sessionID := c.Params("id")
	s, err := h.sessions.Get(sessionID)
	if err != nil {
		msg, _ := protocol.NewErrorMessage("", protocol.CodeNotFound, err.Error())
		if data, err := msg.Bytes(); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}
		return
	}

	conn := &Connection{
		ID:        fmt.Sprintf("ctl-%d", h.next.Add(1)),
		SessionID: sessionID,
		Conn:      c,
		Connected: time.Now(),
		lastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.conns[conn.ID] = conn
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Info("control client connected", "conn", conn.ID, "session", sessionID, "total", count)

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn.ID)
		count := len(h.conns)
		h.mu.Unlock()
		h.logger.Info("control client disconnected", "conn", conn.ID, "session", sessionID, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("control read error", "conn", conn.ID, "error", err)
			}
			return
		}
		conn.touch()

		reply := h.HandleMessage(s, data)
		if err := conn.Send(reply); err != nil {
			h.logger.Warn("control write error", "conn", conn.ID, "error", err)
			return
		}
	}
}

// HandleMessage parses one raw command, applies it to s and returns the
// reply. It never returns nil.
func (h *Hub) HandleMessage(s *session.Session, data []byte) *protocol.Message {
	h.commandsReceived.Add(1)

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.commandsRejected.Add(1)
		reply, _ := protocol.NewErrorMessage("", protocol.CodeBadRequest, err.Error())
		return reply
	}

	reply, err := Dispatch(s, msg)
	if err != nil {
		h.commandsRejected.Add(1)
		reply, _ = protocol.NewErrorMessage(msg.Type, errorCode(err), err.Error())
		return reply.WithID(msg.ID)
	}
	if h.publish != nil && mutates(msg.Type) {
		h.publish(s)
	}
	return reply.WithID(msg.ID)
}

// mutates reports whether a command changes session state.
func mutates(t protocol.MessageType) bool {
	switch t {
	case protocol.TypeSnapshot, protocol.TypePing:
		return false
	}
	return true
}

// errBadRequest marks payload problems.
var errBadRequest = errors.New("bad request")

// errUnsupported marks unknown command types.
var errUnsupported = errors.New("unsupported command")

func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnsupported):
		return protocol.CodeUnsupported
	case errors.Is(err, skeleton.ErrUnknownLift),
		errors.Is(err, session.ErrUnknownJoint),
		errors.Is(err, animation.ErrUnknownParameter),
		errors.Is(err, session.ErrSessionNotFound):
		return protocol.CodeNotFound
	default:
		return protocol.CodeBadRequest
	}
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// Dispatch applies one command to s.
func Dispatch(s *session.Session, msg *protocol.Message) (*protocol.Message, error) {
	switch msg.Type {
	case protocol.TypePlay:
		s.Play()
		return protocol.NewAckMessage(msg.Type, true)

	case protocol.TypePause:
		s.Pause()
		return protocol.NewAckMessage(msg.Type, false)

	case protocol.TypeToggle:
		return protocol.NewAckMessage(msg.Type, s.Toggle())

	case protocol.TypeTempo:
		cmd, err := msg.GetTempo()
		if err != nil {
			return nil, badRequest(err)
		}
		return protocol.NewAckMessage(msg.Type, s.SetTempo(cmd.Tempo))

	case protocol.TypeSeek:
		cmd, err := msg.GetSeek()
		if err != nil {
			return nil, badRequest(err)
		}
		s.Seek(cmd.Progress)
		return protocol.NewAckMessage(msg.Type, s.Playback().Progress)

	case protocol.TypeLift:
		cmd, err := msg.GetLift()
		if err != nil {
			return nil, badRequest(err)
		}
		if err := s.SetLift(cmd.Lift); err != nil {
			return nil, err
		}
		return protocol.NewAckMessage(msg.Type, s.Lift())

	case protocol.TypeOffset:
		cmd, err := msg.GetOffset()
		if err != nil {
			return nil, badRequest(err)
		}
		v, err := s.SetJointOffset(cmd.Joint, cmd.Degrees)
		if err != nil {
			return nil, err
		}
		return protocol.NewAckMessage(msg.Type, v)

	case protocol.TypePin:
		cmd, err := msg.GetPin()
		if err != nil {
			return nil, badRequest(err)
		}
		if err := s.PinJoint(cmd.Joint, skeleton.Point{X: cmd.X, Y: cmd.Y}); err != nil {
			return nil, err
		}
		return protocol.NewAckMessage(msg.Type, nil)

	case protocol.TypeUnpin:
		cmd, err := msg.GetPin()
		if err != nil {
			return nil, badRequest(err)
		}
		s.UnpinJoint(cmd.Joint)
		return protocol.NewAckMessage(msg.Type, nil)

	case protocol.TypeBar:
		cmd, err := msg.GetBar()
		if err != nil {
			return nil, badRequest(err)
		}
		return protocol.NewAckMessage(msg.Type, s.SetBarOffset(skeleton.Point{X: cmd.X, Y: cmd.Y}))

	case protocol.TypeParameter:
		cmd, err := msg.GetParameter()
		if err != nil {
			return nil, badRequest(err)
		}
		v, err := s.SetParameter(cmd.Key, cmd.Value)
		if err != nil {
			return nil, err
		}
		return protocol.NewAckMessage(msg.Type, v)

	case protocol.TypeReset:
		cmd, err := msg.GetReset()
		if err != nil {
			return nil, badRequest(err)
		}
		switch cmd.Scope {
		case protocol.ResetAll:
			s.Reset()
		case protocol.ResetManual:
			s.ResetManual()
		case protocol.ResetParameters:
			s.ResetParameters()
		default:
			return nil, fmt.Errorf("%w: reset scope %q", errBadRequest, cmd.Scope)
		}
		return protocol.NewAckMessage(msg.Type, cmd.Scope)

	case protocol.TypeSnapshot:
		st, err := s.Snapshot()
		if err != nil {
			return nil, err
		}
		return protocol.NewStateMessage(st)

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return nil, badRequest(err)
		}
		return protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())

	default:
		return nil, fmt.Errorf("%w: %q", errUnsupported, msg.Type)
	}
}

// ConnectionCount returns the number of control clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Stats contains hub statistics
type Stats struct {
	Connections      int    `json:"connections"`
	CommandsReceived uint64 `json:"commands_received"`
	CommandsRejected uint64 `json:"commands_rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		Connections:      h.ConnectionCount(),
		CommandsReceived: h.commandsReceived.Load(),
		CommandsRejected: h.commandsRejected.Load(),
	}
}

// ConnectionInfo describes a connected control client.
type ConnectionInfo struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// Connections lists the control clients, optionally for one session.
func (h *Hub) Connections(sessionID string) []ConnectionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]ConnectionInfo, 0, len(h.conns))
	for _, c := range h.conns {
		if sessionID != "" && c.SessionID != sessionID {
			continue
		}
		infos = append(infos, ConnectionInfo{
			ID:        c.ID,
			SessionID: c.SessionID,
			Connected: c.Connected,
			LastSeen:  c.LastSeen(),
		})
	}
	return infos
}

// RegisterAPIRoutes mounts control statistics under api.
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	api.Get("/control/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
	api.Get("/control/connections", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"connections": h.Connections(c.Query("session")),
		})
	})
}
