package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/maison-core/internal/infrastructure/config"
	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
	"github.com/nerrad567/maison-core/internal/module"
)

// wsSendBufferSize is the per-session outbound message buffer size.
const wsSendBufferSize = 64

// Session errors.
var (
	// ErrSessionClosed is returned by Emit after the transport is gone.
	ErrSessionClosed = errors.New("api: session closed")

	// ErrSendBufferFull is returned by Emit when the device stops
	// draining its socket.
	ErrSendBufferFull = errors.New("api: session send buffer full")
)

// wsEnvelope is the wire format on the module socket, both directions:
// a named event and an optional JSON payload.
type wsEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// upgrader configures the WebSocket upgrader. Devices are not
// browsers; origin checking does not apply to them.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// wsSession is the module.Session implementation over a gorilla
// WebSocket connection. Outbound events flow through a buffered send
// channel drained by writePump; inbound events are dispatched from
// readPump to the registered handlers.
type wsSession struct {
	conn   *websocket.Conn
	cfg    config.WebSocketConfig
	logger *logging.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	handlers map[string]func(payload json.RawMessage)
}

func newWSSession(conn *websocket.Conn, cfg config.WebSocketConfig, logger *logging.Logger) *wsSession {
	return &wsSession{
		conn:     conn,
		cfg:      cfg,
		logger:   logger,
		send:     make(chan []byte, wsSendBufferSize),
		done:     make(chan struct{}),
		handlers: make(map[string]func(payload json.RawMessage)),
	}
}

// Emit sends a named event to the device.
func (s *wsSession) Emit(event string, payload any) error {
	env := wsEnvelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	case s.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// On registers a handler for a named inbound event, replacing any
// previous handler for the same event.
func (s *wsSession) On(event string, handler func(payload json.RawMessage)) {
	s.mu.Lock()
	s.handlers[event] = handler
	s.mu.Unlock()
}

// Off removes the handler for a named inbound event.
func (s *wsSession) Off(event string) {
	s.mu.Lock()
	delete(s.handlers, event)
	s.mu.Unlock()
}

// Close tears down the transport. Safe to call more than once.
func (s *wsSession) Close() error {
	s.once.Do(func() {
		close(s.done)
		//nolint:errcheck // Best-effort close frame before dropping the conn
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.conn.Close()
	})
	return nil
}

// dispatch routes one inbound envelope to its handler. Events nobody
// listens for are dropped with a debug log; devices may be a firmware
// version ahead of the server.
func (s *wsSession) dispatch(data []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Debug("malformed module message", "error", err)
		return
	}

	s.mu.Lock()
	handler := s.handlers[env.Event]
	s.mu.Unlock()

	if handler == nil {
		s.logger.Debug("unhandled module event", "event", env.Event)
		return
	}
	handler(env.Payload)
}

// readPump reads inbound messages until the transport drops, then
// closes the session. Runs on the upgraded connection's goroutine.
func (s *wsSession) readPump() {
	defer s.Close() //nolint:errcheck // teardown path

	s.conn.SetReadLimit(int64(s.cfg.MaxMessageSize))
	pingInterval := time.Duration(s.cfg.PingInterval) * time.Second
	pongWait := time.Duration(s.cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	s.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("module socket read error", "error", err)
			} else {
				s.logger.Debug("module socket closed", "error", err)
			}
			return
		}
		// Any device message resets the read deadline, keeping flaky
		// devices alive even when their pong handling is broken.
		//nolint:errcheck // Best-effort deadline reset
		s.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		s.dispatch(message)
	}
}

// writePump drains the send channel onto the connection and keeps the
// device alive with protocol-level pings.
func (s *wsSession) writePump() {
	pingInterval := time.Duration(s.cfg.PingInterval) * time.Second
	pongWait := time.Duration(s.cfg.PongTimeout) * time.Second

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.Close() //nolint:errcheck // teardown path
	}()

	for {
		select {
		case <-s.done:
			return
		case message := <-s.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			s.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			s.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleModuleSocket upgrades the connection and runs the module
// session. Devices authenticate inside the handshake, not at upgrade
// time: the socket stays open but unbound until a module.connect with
// a known token arrives.
func (s *Server) handleModuleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("module socket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sess := newWSSession(conn, s.wsCfg, s.logger)
	binding := &moduleBinding{server: s, session: sess}
	sess.On(module.EventConnect, binding.handshake)

	s.logger.Debug("module socket opened", "remote", r.RemoteAddr)

	go sess.writePump()
	sess.readPump()

	binding.release()
	s.logger.Debug("module socket closed", "remote", r.RemoteAddr)
}

// moduleBinding tracks which module, if any, a socket is bound to.
// The handshake may run more than once on a misbehaving device, and
// release runs exactly once when the transport drops, so the bound
// module is guarded.
type moduleBinding struct {
	server  *Server
	session *wsSession

	mu    sync.Mutex
	bound *module.Module
}

// handshake processes a module.connect event.
func (b *moduleBinding) handshake(payload json.RawMessage) {
	s := b.server

	var req module.ConnectRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Token == "" {
		b.refuse(module.CodeModuleNotFound)
		return
	}

	m, err := s.registry.FindByToken(req.Token)
	if err != nil {
		b.refuse(module.CodeModuleNotFound)
		return
	}
	if !m.Validated() {
		b.refuse(module.CodeModuleNotValidated)
		return
	}

	b.mu.Lock()
	if b.bound != nil {
		already := b.bound
		b.mu.Unlock()
		if already.ID() == m.ID() {
			// Duplicate handshake from the same device; re-ack.
			b.ack()
			return
		}
		b.refuse(module.CodeModuleError)
		return
	}
	b.mu.Unlock()

	// A module already online elsewhere loses its old binding: the
	// latest connect wins.
	ctx := context.Background()
	err = m.Connect(ctx, b.session)
	if errors.Is(err, module.ErrAlreadyOnline) {
		m.Disconnect()
		err = m.Connect(ctx, b.session)
	}
	if err != nil {
		s.logger.Error("module connect failed", "module_id", m.ID(), "error", err)
		b.refuse(module.CodeModuleError)
		return
	}

	b.mu.Lock()
	b.bound = m
	b.mu.Unlock()

	b.ack()
	s.noteModuleOnline(m)
	s.attachWeatherSink(m)
}

// release tears down the binding when the transport drops. Publishes
// the offline transition only when this socket still held the live
// session; a module already taken over or disconnected through the
// HTTP surface stays silent.
func (b *moduleBinding) release() {
	b.mu.Lock()
	m := b.bound
	b.bound = nil
	b.mu.Unlock()

	if m == nil {
		return
	}
	if m.DisconnectSession(b.session) {
		b.server.noteModuleOffline(m)
	}
}

// ack confirms a successful handshake.
func (b *moduleBinding) ack() {
	if err := b.session.Emit(module.EventConnect, module.ConnectAck{Status: module.StatusOnline}); err != nil {
		b.server.logger.Debug("emitting connect ack", "error", err)
	}
}

// refuse answers a failed handshake with a fixed error code. The
// transport stays open; the device may retry with another token.
func (b *moduleBinding) refuse(code string) {
	if err := b.session.Emit(module.EventError, module.ErrorEvent{Error: code}); err != nil {
		b.server.logger.Debug("emitting handshake error", "error", err)
	}
}

// noteModuleOnline mirrors an online transition onto MQTT and the
// telemetry store. Best-effort.
func (s *Server) noteModuleOnline(m *module.Module) {
	if s.relay != nil {
		if err := s.relay.ModuleOnline(m.ID(), m.Type().String()); err != nil {
			s.logger.Warn("publishing module online failed", "module_id", m.ID(), "error", err)
		}
	}
	if s.telemetry != nil {
		s.telemetry.WriteModuleStatus(m.ID(), m.Type().String(), true)
	}
}

// attachWeatherSink forwards a weather module's inbound readings to
// the telemetry store and the MQTT relay. A no-op for other kinds.
func (s *Server) attachWeatherSink(m *module.Module) {
	weather, err := m.AsWeather()
	if err != nil {
		return
	}

	id := m.ID()
	weather.OnReading(func(reading module.WeatherReading) {
		s.logger.Debug("weather reading", "module_id", id, "value", reading.Value, "unit", reading.Unit)

		if s.telemetry != nil {
			s.telemetry.WriteWeatherReading(id, reading.Value, reading.Unit)
		}
		if s.relay != nil {
			payload, err := json.Marshal(reading)
			if err != nil {
				return
			}
			if err := s.relay.ModuleEvent(id, "weather", payload); err != nil {
				s.logger.Warn("publishing weather reading failed", "module_id", id, "error", err)
			}
		}
	})
}
