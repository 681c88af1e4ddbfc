// Package sessionmodule wires the Session Manager core into the
// application's module system, grounded on the teacher's
// internal/modules/playbackmodule/module.go shape (BaseModule embedding +
// Migrate + Init + RouteRegistrar). It lives in its own package, separate
// from internal/sessions, because it depends on internal/sessions/api,
// which itself depends on internal/sessions — folding this type into the
// core package would create an import cycle.
package sessionmodule

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/mantonx/viewra/internal/base"
	"github.com/mantonx/viewra/internal/events"
	"github.com/mantonx/viewra/internal/sessions"
	"github.com/mantonx/viewra/internal/sessions/api"
	"github.com/mantonx/viewra/internal/sessions/models"
)

// Module wires the Session Manager core into the application's module
// system.
type Module struct {
	*base.BaseModule

	Manager *sessions.Manager

	logger hclog.Logger

	authRepo   *models.AuthRepository
	deviceRepo *models.DeviceRepository
	factories  []sessions.SessionControllerFactory
}

// NewModule constructs the sessions module. factories lets callers wire
// transport-specific SessionControllerFactory implementations (httppoll,
// websocket) before the module is registered.
func NewModule(factories ...sessions.SessionControllerFactory) *Module {
	return &Module{
		BaseModule: base.NewBaseModule("system.sessions", "Session Manager", "1.0.0", true),
		factories:  factories,
	}
}

func (m *Module) Migrate(db *gorm.DB) error {
	m.SetDB(db)
	return db.AutoMigrate(&models.AuthenticationToken{}, &models.DeviceCapabilities{})
}

// Init builds the Manager on top of the module's database handle and event
// bus, wiring the gorm-backed authentication/device collaborators. External
// collaborators (UserManager, LibraryManager, MusicManager,
// MediaSourceManager, UserDataManager) are not provided by this module — the
// Manager core nil-checks every one of them, per the Session Manager's
// "external collaborator, out of scope" framing.
func (m *Module) Init() error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("sessions module: no database connection configured")
	}

	m.logger = hclog.New(&hclog.LoggerOptions{Name: "sessions-module", Level: hclog.Info})

	m.authRepo = models.NewAuthRepository(db)
	m.deviceRepo = models.NewDeviceRepository(db)

	bus := m.GetEventBus()
	if bus == nil {
		bus = events.GetGlobalEventBus()
	}

	m.Manager = sessions.NewManager(sessions.ManagerConfig{
		AuthRepo:      NewAuthRepositoryAdapter(m.authRepo),
		DeviceManager: NewDeviceRepositoryAdapter(m.deviceRepo),
		EventBus:      bus,
		Factories:     m.factories,
		Logger:        m.logger.Named("core"),
	})

	m.SetInitialized(true)
	return nil
}

// RegisterRoutes mounts the session HTTP surface under /sessions and /auth.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, m.Manager)
}

// Shutdown disposes the underlying Manager. Not part of the modulemanager.Module
// interface (which has no shutdown hook); callers invoke it directly during
// application teardown.
func (m *Module) Shutdown() {
	if m.Manager != nil {
		m.Manager.Shutdown()
	}
}

// authRepositoryAdapter satisfies sessions.AuthenticationRepository on top of
// the gorm-backed models.AuthRepository, translating between the core's
// narrow AuthTokenQuery/AuthTokenInfo shapes and the persisted
// AuthenticationToken row, so internal/sessions/models stays free of a
// dependency on this package.
type authRepositoryAdapter struct {
	repo *models.AuthRepository
}

// NewAuthRepositoryAdapter adapts repo to sessions.AuthenticationRepository.
func NewAuthRepositoryAdapter(repo *models.AuthRepository) sessions.AuthenticationRepository {
	return &authRepositoryAdapter{repo: repo}
}

func (a *authRepositoryAdapter) Get(ctx context.Context, query sessions.AuthTokenQuery) ([]*sessions.AuthTokenInfo, int64, error) {
	rows, total, err := a.repo.Get(ctx, models.Query{
		AccessToken: query.AccessToken,
		UserId:      query.UserId,
		DeviceId:    query.DeviceId,
		IsActive:    query.IsActive,
		Limit:       query.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]*sessions.AuthTokenInfo, len(rows))
	for i, r := range rows {
		out[i] = &sessions.AuthTokenInfo{
			AccessToken:      r.AccessToken,
			DeviceId:         r.DeviceId,
			UserId:           r.UserId,
			IsActive:         r.IsActive,
			DateCreated:      r.DateCreated,
			DateLastActivity: r.DateLastActivity,
		}
	}
	return out, total, nil
}

func (a *authRepositoryAdapter) Create(ctx context.Context, info *sessions.AuthTokenInfo) error {
	return a.repo.Create(ctx, &models.AuthenticationToken{
		AccessToken:      info.AccessToken,
		DeviceId:         info.DeviceId,
		UserId:           info.UserId,
		IsActive:         info.IsActive,
		DateCreated:      info.DateCreated,
		DateLastActivity: info.DateLastActivity,
	})
}

func (a *authRepositoryAdapter) Update(ctx context.Context, info *sessions.AuthTokenInfo) error {
	rows, _, err := a.repo.Get(ctx, models.Query{AccessToken: info.AccessToken, Limit: 1})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("authentication token %q not found", info.AccessToken)
	}
	row := rows[0]
	row.IsActive = info.IsActive
	row.DateLastActivity = info.DateLastActivity
	return a.repo.Update(ctx, row)
}

// deviceRepositoryAdapter satisfies sessions.DeviceManager on top of the
// gorm-backed models.DeviceRepository.
type deviceRepositoryAdapter struct {
	repo *models.DeviceRepository
}

// NewDeviceRepositoryAdapter adapts repo to sessions.DeviceManager.
func NewDeviceRepositoryAdapter(repo *models.DeviceRepository) sessions.DeviceManager {
	return &deviceRepositoryAdapter{repo: repo}
}

func (a *deviceRepositoryAdapter) RegisterDevice(ctx context.Context, id, name, app, version, userId string) error {
	existing, err := a.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	dev := &models.DeviceCapabilities{DeviceId: id, Name: name}
	if existing != nil {
		dev.CapabilitiesJSON = existing.CapabilitiesJSON
		dev.IconUrl = existing.IconUrl
	}
	return a.repo.Upsert(ctx, dev)
}

func (a *deviceRepositoryAdapter) GetDevice(ctx context.Context, id string) (*sessions.DeviceCapabilitiesRecord, error) {
	dev, err := a.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, nil
	}
	caps, err := decodeCapabilities(dev)
	if err != nil {
		return nil, err
	}
	return &sessions.DeviceCapabilitiesRecord{DeviceId: dev.DeviceId, Name: dev.Name, IconUrl: dev.IconUrl, Capabilities: caps}, nil
}

// CanAccessDevice imposes no restriction of its own; device-level access
// policy is delegated to UserManager.CanAccessDevice, which the core also
// consults.
func (a *deviceRepositoryAdapter) CanAccessDevice(ctx context.Context, userId, deviceId string) (bool, error) {
	return true, nil
}

func (a *deviceRepositoryAdapter) GetCapabilities(ctx context.Context, deviceId string) (*sessions.Capabilities, error) {
	dev, err := a.repo.Get(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, nil
	}
	caps, err := decodeCapabilities(dev)
	if err != nil {
		return nil, err
	}
	return &caps, nil
}

func (a *deviceRepositoryAdapter) SaveCapabilities(ctx context.Context, deviceId string, caps sessions.Capabilities) error {
	dev, err := a.repo.Get(ctx, deviceId)
	if err != nil {
		return err
	}
	if dev == nil {
		dev = &models.DeviceCapabilities{DeviceId: deviceId}
	}
	if err := dev.EncodeCapabilities(caps.PlayableMediaTypes, caps.SupportedCommands, caps.SupportsMediaControl, caps.MessageCallbackUrl); err != nil {
		return err
	}
	return a.repo.Upsert(ctx, dev)
}

func decodeCapabilities(dev *models.DeviceCapabilities) (sessions.Capabilities, error) {
	playable, commands, supportsControl, callback, err := dev.DecodeCapabilities()
	if err != nil {
		return sessions.Capabilities{}, err
	}
	return sessions.Capabilities{
		PlayableMediaTypes:   playable,
		SupportedCommands:    commands,
		SupportsMediaControl: supportsControl,
		IconUrl:              dev.IconUrl,
		MessageCallbackUrl:   callback,
	}, nil
}
