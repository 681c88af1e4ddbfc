package sessions

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/viewra/internal/events"
	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
	"github.com/mantonx/viewra/internal/utils"
)

// activityCoalesceWindow and userActivityStaleness are the §4.D timing
// constants controlling SessionActivity emission and user-activity refresh.
const (
	activityCoalesceWindow = 10 * time.Second
	userActivityStaleness  = 60 * time.Second
)

// Manager is the Session Manager core: it owns the registry, the controller
// factory chain, the external collaborators, and the event bus, grounded on
// SessionManager in the teacher's core/session_manager.go generalized to the
// spec's component boundaries (A, C, D, H feed off this type; E, F, G, I are
// split into playback.go, idle.go, remote_control.go, notify.go).
type Manager struct {
	// primaryLock serializes the registry mutation path of
	// LogSessionActivity / ReportSessionEnded per spec §5.
	primaryLock sync.Mutex

	registry  *registry
	factories *controllerFactoryChain

	userManager        UserManager
	userDataManager    UserDataManager
	libraryManager     LibraryManager
	musicManager       MusicManager
	mediaSourceManager MediaSourceManager
	deviceManager      DeviceManager
	authRepo           AuthenticationRepository
	prng               PRNG

	eventBus events.EventBus

	idle *idleSweeper

	logger hclog.Logger

	serverId string

	disposed atomic.Bool
}

// ManagerConfig bundles the collaborators a Manager needs, per spec §6.
type ManagerConfig struct {
	UserManager        UserManager
	UserDataManager    UserDataManager
	LibraryManager     LibraryManager
	MusicManager       MusicManager
	MediaSourceManager MediaSourceManager
	DeviceManager      DeviceManager
	AuthRepo           AuthenticationRepository
	PRNG               PRNG
	EventBus           events.EventBus
	Factories          []SessionControllerFactory
	ServerId           string

	// Logger is the root hclog.Logger for the session core, threaded into
	// the idle sweeper and every sub-component the way the teacher's
	// playbackmodule.Module threads a logger into its core managers. If
	// nil, NewManager creates one named "sessions".
	Logger hclog.Logger
}

// NewManager constructs a Manager and arms its idle sweeper. Callers must
// call Shutdown to drain outstanding timers.
func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Logger
	if log == nil {
		log = hclog.New(&hclog.LoggerOptions{Name: "sessions", Level: hclog.Info})
	}

	m := &Manager{
		registry:           newRegistry(),
		factories:          newControllerFactoryChain(cfg.Factories...),
		userManager:        cfg.UserManager,
		userDataManager:    cfg.UserDataManager,
		libraryManager:     cfg.LibraryManager,
		musicManager:       cfg.MusicManager,
		mediaSourceManager: cfg.MediaSourceManager,
		deviceManager:      cfg.DeviceManager,
		authRepo:           cfg.AuthRepo,
		prng:               cfg.PRNG,
		eventBus:           cfg.EventBus,
		logger:             log,
		serverId:           cfg.ServerId,
	}
	if m.serverId == "" {
		m.serverId = uuid.NewString()
	}
	m.idle = newIdleSweeper(m, log.Named("idle"))
	return m
}

// Shutdown marks the manager disposed so further public calls fail with
// Disposed, then cancels every registered session's auto-progress timer and
// disarms the idle sweeper, waiting for each timer goroutine to exit.
// Fan-out goroutines need no draining here: every fan-out joins its own
// goroutines before returning.
func (m *Manager) Shutdown() {
	m.disposed.Store(true)
	for _, session := range m.registry.snapshot() {
		session.StopAutomaticProgress()
	}
	m.idle.stop()
}

func (m *Manager) checkDisposed(op string) error {
	if m.disposed.Load() {
		return sessionerrors.DisposedError(op)
	}
	return nil
}

func (m *Manager) publishEvent(evt events.Event) {
	if m.eventBus == nil {
		return
	}
	if err := m.eventBus.PublishAsync(evt); err != nil {
		m.logError("publish event", err)
	}
}

// GetSessionById resolves a session by id, or nil.
func (m *Manager) GetSessionById(sessionId string) *Session {
	return m.registry.getById(sessionId)
}

// Sessions returns a snapshot of all sessions ordered by lastActivityDate
// descending (spec §4.A).
func (m *Manager) Sessions() []*Session {
	return m.registry.snapshot()
}

// LogSessionActivity creates-or-updates the session for (appName, deviceId),
// implementing the exact four-step algorithm of spec §4.D.
func (m *Manager) LogSessionActivity(
	ctx context.Context,
	appName, appVersion, deviceId, deviceName, remoteEndPoint string,
	user *User,
) (*Session, error) {
	const op = "LogSessionActivity"
	if err := m.checkDisposed(op); err != nil {
		return nil, err
	}
	if appName == "" || appVersion == "" || deviceId == "" || deviceName == "" {
		return nil, sessionerrors.InvalidArgumentError(op,
			fmt.Errorf("appName, appVersion, deviceId, and deviceName are required"))
	}

	key := GetSessionKey(appName, deviceId)

	m.primaryLock.Lock()
	session := m.registry.get(key)
	isNew := session == nil
	if isNew {
		candidate := &Session{
			Id:       utils.GenerateNamespaceUUID(utils.NamespaceSessions, key),
			Client:   appName,
			DeviceId: deviceId,
		}
		session = m.registry.insertIfAbsent(key, candidate)
		isNew = session == candidate
	}

	if isNew {
		m.publishEvent(events.NewSessionLifecycleEvent(events.EventSessionStarted, events.SessionLifecycleData{
			SessionID: session.Id,
			ClientID:  appName,
			DeviceID:  deviceId,
			UserID:    userIdOf(user),
		}))

		if m.deviceManager != nil {
			if caps, err := m.deviceManager.GetCapabilities(ctx, deviceId); err == nil && caps != nil {
				session.SetCapabilities(*caps)
			}
			if err := m.deviceManager.RegisterDevice(ctx, deviceId, deviceName, appName, appVersion, userIdOf(user)); err != nil {
				m.logError("register device", err)
			}
		}
	}

	refreshedDeviceName := deviceName
	if m.deviceManager != nil {
		if dev, err := m.deviceManager.GetDevice(ctx, deviceId); err == nil && dev != nil && dev.Name != "" {
			refreshedDeviceName = dev.Name
		}
	}
	session.DeviceName = refreshedDeviceName
	session.ApplicationVersion = appVersion
	session.RemoteEndPoint = remoteEndPoint
	if user != nil {
		session.UserId = user.Id
		session.UserName = user.Name
	}

	if session.Controller() == nil {
		session.SetController(m.factories.resolve(session))
	}
	m.primaryLock.Unlock()

	// Outside the critical section (spec §5: never hold the primary lock
	// across user-manager calls or controller notification).
	activityDate := time.Now().UTC()
	previous := session.LastActivityDate()
	session.SetLastActivityDate(activityDate)
	if previous.IsZero() || activityDate.Sub(previous) > activityCoalesceWindow {
		m.publishEvent(events.NewSessionActivityEvent(events.SessionActivityData{
			SessionID:  session.Id,
			LastActive: activityDate,
		}))
	}

	if user != nil && m.userManager != nil && activityDate.Sub(user.LastActivityDate) > userActivityStaleness {
		user.LastActivityDate = activityDate
		if err := m.userManager.UpdateUser(ctx, user); err != nil {
			m.logError("update user activity", err)
		}
	}

	if ctrl := session.Controller(); ctrl != nil {
		ctrl.OnActivity()
	}

	return session, nil
}

// ReportSessionEnded removes sessionId from the registry, emits SessionEnded,
// fans out SendSessionEndedNotification, and disposes the session, per
// spec §4.D.
func (m *Manager) ReportSessionEnded(ctx context.Context, sessionId string) error {
	const op = "ReportSessionEnded"
	if err := m.checkDisposed(op); err != nil {
		return err
	}

	m.primaryLock.Lock()
	session := m.registry.remove(sessionId)
	m.primaryLock.Unlock()

	if session == nil {
		return sessionerrors.NotFoundError(op, fmt.Errorf("session %q not found", sessionId))
	}

	m.publishEvent(events.NewSessionLifecycleEvent(events.EventSessionEnded, events.SessionLifecycleData{
		SessionID: session.Id,
		ClientID:  session.Client,
		DeviceID:  session.DeviceId,
		UserID:    session.UserId,
	}))

	m.fanOut(ctx, op, func(ctx context.Context, ctrl SessionController) error {
		return ctrl.SendSessionEndedNotification(ctx, session)
	})

	session.Dispose()
	return nil
}

func userIdOf(user *User) string {
	if user == nil {
		return ""
	}
	return user.Id
}
