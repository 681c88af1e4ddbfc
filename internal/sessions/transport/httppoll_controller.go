package transport

import (
	"context"
	"sync"
	"time"

	"github.com/mantonx/viewra/internal/sessions"
)

// polledCommand is one queued command/notification awaiting delivery to a
// long-poll client.
type polledCommand struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// HTTPPollController is a SessionController backed by a bounded in-memory
// command queue that a client drains via repeated GET polls, for clients
// that cannot hold a persistent WebSocket connection open.
type HTTPPollController struct {
	mu         sync.Mutex
	queue      []polledCommand
	maxQueue   int
	lastPoll   time.Time
	callbackID string
}

// NewHTTPPollController constructs a controller identified by callbackID
// (e.g. the client's registered callback URL), used for transport-descriptor
// equality so a reconnect with the same id reuses the controller.
func NewHTTPPollController(callbackID string) *HTTPPollController {
	return &HTTPPollController{maxQueue: 64, lastPoll: time.Now(), callbackID: callbackID}
}

func (c *HTTPPollController) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastPoll) < 2*time.Minute
}

func (c *HTTPPollController) OnActivity() {
	c.mu.Lock()
	c.lastPoll = time.Now()
	c.mu.Unlock()
}

// Descriptor identifies this controller for equality-based reuse checks.
func (c *HTTPPollController) Descriptor() sessions.TransportDescriptor {
	return sessions.TransportDescriptor{Kind: "httppoll", Key: c.callbackID}
}

// Drain returns and clears every queued command, marking the controller as
// just-polled.
func (c *HTTPPollController) Drain() []polledCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPoll = time.Now()
	out := c.queue
	c.queue = nil
	return out
}

func (c *HTTPPollController) enqueue(kind string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, polledCommand{Type: kind, Data: data, Timestamp: time.Now().Unix()})
	if len(c.queue) > c.maxQueue {
		c.queue = c.queue[len(c.queue)-c.maxQueue:]
	}
	return nil
}

func (c *HTTPPollController) SendGeneralCommand(ctx context.Context, cmd sessions.GeneralCommand) error {
	return c.enqueue("GeneralCommand", cmd)
}

func (c *HTTPPollController) SendPlaystateCommand(ctx context.Context, cmd sessions.PlaystateCommand) error {
	return c.enqueue("PlaystateCommand", cmd)
}

func (c *HTTPPollController) SendPlayCommand(ctx context.Context, req sessions.PlayRequest) error {
	return c.enqueue("PlayCommand", req)
}

func (c *HTTPPollController) SendPlaybackStartNotification(ctx context.Context, session *sessions.Session) error {
	return c.enqueue("PlaybackStart", session.NowPlayingItem())
}

func (c *HTTPPollController) SendPlaybackStoppedNotification(ctx context.Context, session *sessions.Session) error {
	return c.enqueue("PlaybackStopped", session.NowPlayingItem())
}

func (c *HTTPPollController) SendSessionEndedNotification(ctx context.Context, session *sessions.Session) error {
	return c.enqueue("SessionEnded", session.Id)
}

func (c *HTTPPollController) SendServerShutdownNotification(ctx context.Context) error {
	return c.enqueue("ServerShutdown", nil)
}

func (c *HTTPPollController) SendServerRestartNotification(ctx context.Context) error {
	return c.enqueue("ServerRestarting", nil)
}

func (c *HTTPPollController) SendRestartRequiredNotification(ctx context.Context) error {
	return c.enqueue("RestartRequired", nil)
}

// HTTPPollFactory registers long-poll controllers against sessions by
// deviceId, implementing sessions.SessionControllerFactory. Reusing the same
// callbackID for a device returns the existing controller per
// TransportDescriptor equality (spec §9 design note), rather than minting a
// new one on every request.
type HTTPPollFactory struct {
	mu       sync.RWMutex
	byDevice map[string]*HTTPPollController
}

// NewHTTPPollFactory constructs an empty factory.
func NewHTTPPollFactory() *HTTPPollFactory {
	return &HTTPPollFactory{byDevice: make(map[string]*HTTPPollController)}
}

// GetSessionController returns the registered controller for session's
// device, or nil if the device has never registered a long-poll callback.
func (f *HTTPPollFactory) GetSessionController(session *sessions.Session) sessions.SessionController {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if ctrl, ok := f.byDevice[session.DeviceId]; ok {
		return ctrl
	}
	return nil
}

// Register binds callbackID as deviceId's long-poll controller, reusing the
// existing one if callbackID is unchanged.
func (f *HTTPPollFactory) Register(deviceId, callbackID string) *HTTPPollController {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.byDevice[deviceId]; ok {
		if existing.Descriptor().Key == callbackID {
			return existing
		}
	}

	ctrl := NewHTTPPollController(callbackID)
	f.byDevice[deviceId] = ctrl
	return ctrl
}

// Poll drains queued commands for deviceId, or nil if no controller is
// registered for it.
func (f *HTTPPollFactory) Poll(deviceId string) []polledCommand {
	f.mu.RLock()
	ctrl, ok := f.byDevice[deviceId]
	f.mu.RUnlock()
	if !ok {
		return nil
	}
	return ctrl.Drain()
}
