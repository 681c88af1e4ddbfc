// Package transport provides SessionController implementations: a
// gorilla/websocket push channel and an HTTP long-poll fallback, grounded on
// the teacher's pluginmodule/dashboard_api.go WebSocket-client-registry
// pattern generalized to the Session Manager's per-session command/notify
// surface.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mantonx/viewra/internal/sessions"
)

// wsMessage is the envelope pushed down a WebSocket controller's connection.
type wsMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// WebSocketController is a SessionController backed by a single live
// gorilla/websocket connection.
type WebSocketController struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	lastSeen time.Time
	closed   bool
}

// NewWebSocketController wraps an already-upgraded connection.
func NewWebSocketController(conn *websocket.Conn) *WebSocketController {
	return &WebSocketController{conn: conn, lastSeen: time.Now()}
}

func (c *WebSocketController) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *WebSocketController) OnActivity() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// Dispose closes the underlying connection, satisfying Session.Dispose's
// optional disposer interface.
func (c *WebSocketController) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

// Descriptor identifies this controller for equality-based reuse checks.
func (c *WebSocketController) Descriptor() sessions.TransportDescriptor {
	return sessions.TransportDescriptor{Kind: "websocket", Key: c.conn.RemoteAddr().String()}
}

func (c *WebSocketController) send(kind string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	payload, err := json.Marshal(wsMessage{Type: kind, Data: data, Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *WebSocketController) SendGeneralCommand(ctx context.Context, cmd sessions.GeneralCommand) error {
	return c.send("GeneralCommand", cmd)
}

func (c *WebSocketController) SendPlaystateCommand(ctx context.Context, cmd sessions.PlaystateCommand) error {
	return c.send("PlaystateCommand", cmd)
}

func (c *WebSocketController) SendPlayCommand(ctx context.Context, req sessions.PlayRequest) error {
	return c.send("PlayCommand", req)
}

func (c *WebSocketController) SendPlaybackStartNotification(ctx context.Context, session *sessions.Session) error {
	return c.send("PlaybackStart", session.NowPlayingItem())
}

func (c *WebSocketController) SendPlaybackStoppedNotification(ctx context.Context, session *sessions.Session) error {
	return c.send("PlaybackStopped", session.NowPlayingItem())
}

func (c *WebSocketController) SendSessionEndedNotification(ctx context.Context, session *sessions.Session) error {
	return c.send("SessionEnded", session.Id)
}

func (c *WebSocketController) SendServerShutdownNotification(ctx context.Context) error {
	return c.send("ServerShutdown", nil)
}

func (c *WebSocketController) SendServerRestartNotification(ctx context.Context) error {
	return c.send("ServerRestarting", nil)
}

func (c *WebSocketController) SendRestartRequiredNotification(ctx context.Context) error {
	return c.send("RestartRequired", nil)
}

// WebSocketFactory registers new WebSocket connections against sessions by
// deviceId, implementing sessions.SessionControllerFactory.
type WebSocketFactory struct {
	mu       sync.RWMutex
	byDevice map[string]*WebSocketController
	upgrader websocket.Upgrader
}

// NewWebSocketFactory constructs an empty factory.
func NewWebSocketFactory() *WebSocketFactory {
	return &WebSocketFactory{
		byDevice: make(map[string]*WebSocketController),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GetSessionController returns the registered controller for session's
// device, or nil if no WebSocket client has connected for it yet.
func (f *WebSocketFactory) GetSessionController(session *sessions.Session) sessions.SessionController {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if ctrl, ok := f.byDevice[session.DeviceId]; ok {
		return ctrl
	}
	return nil
}

// HandleUpgrade upgrades an incoming HTTP request to a WebSocket connection
// and registers it as the controller for deviceId, replacing any prior
// connection for that device.
func (f *WebSocketFactory) HandleUpgrade(c *gin.Context, deviceId string) error {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return err
	}

	ctrl := NewWebSocketController(conn)

	f.mu.Lock()
	if prev, ok := f.byDevice[deviceId]; ok {
		prev.Dispose()
	}
	f.byDevice[deviceId] = ctrl
	f.mu.Unlock()

	go f.readLoop(deviceId, ctrl)
	return nil
}

func (f *WebSocketFactory) readLoop(deviceId string, ctrl *WebSocketController) {
	defer func() {
		f.mu.Lock()
		if f.byDevice[deviceId] == ctrl {
			delete(f.byDevice, deviceId)
		}
		f.mu.Unlock()
		ctrl.Dispose()
	}()

	for {
		if _, _, err := ctrl.conn.ReadMessage(); err != nil {
			return
		}
		ctrl.OnActivity()
	}
}
