// Package sessionsfakes provides in-memory fakes for every collaborator
// interface the Session Manager core depends on, for use by its test suite.
// Grounded on the teacher's practice of hand-written fakes over generated
// mocks for small, behavior-bearing collaborators (see
// internal/modules/playbackmodule's test doubles).
package sessionsfakes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mantonx/viewra/internal/sessions"
)

// FakeUserManager is an in-memory UserManager keyed by user id.
type FakeUserManager struct {
	mu    sync.Mutex
	users map[string]*sessions.User

	// AuthenticateFunc lets a test override password authentication; if nil,
	// AuthenticateUser always fails.
	AuthenticateFunc func(ctx context.Context, username, password, remoteEndPoint string) (*sessions.User, error)
	// DeviceAccess, keyed by deviceId, controls CanAccessDevice's result;
	// absent entries default to true.
	DeviceAccess map[string]bool
	// ParentalScheduleOK, keyed by userId, controls IsWithinParentalSchedule's
	// result; absent entries default to true.
	ParentalScheduleOK map[string]bool
	// PlayAccessByItem, keyed by itemId, controls GetPlayAccess's result;
	// absent entries default to PlayAccessFull.
	PlayAccessByItem map[string]sessions.PlayAccess
}

// NewFakeUserManager constructs an empty FakeUserManager.
func NewFakeUserManager() *FakeUserManager {
	return &FakeUserManager{users: make(map[string]*sessions.User)}
}

// AddUser registers user for later lookup by id and name.
func (f *FakeUserManager) AddUser(u *sessions.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Id] = u
}

func (f *FakeUserManager) GetUserById(ctx context.Context, userId string) (*sessions.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userId]
	if !ok {
		return nil, fmt.Errorf("user %q not found", userId)
	}
	return u, nil
}

func (f *FakeUserManager) GetUserByName(ctx context.Context, username string) (*sessions.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Name, username) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %q not found", username)
}

func (f *FakeUserManager) AuthenticateUser(ctx context.Context, username, password, remoteEndPoint string) (*sessions.User, error) {
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, username, password, remoteEndPoint)
	}
	return nil, fmt.Errorf("authentication not configured")
}

func (f *FakeUserManager) UpdateUser(ctx context.Context, user *sessions.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Id] = user
	return nil
}

func (f *FakeUserManager) IsWithinParentalSchedule(ctx context.Context, userId string) (bool, error) {
	if f.ParentalScheduleOK == nil {
		return true, nil
	}
	if ok, present := f.ParentalScheduleOK[userId]; present {
		return ok, nil
	}
	return true, nil
}

func (f *FakeUserManager) CanAccessDevice(ctx context.Context, userId, deviceId string) (bool, error) {
	if f.DeviceAccess == nil {
		return true, nil
	}
	if ok, present := f.DeviceAccess[deviceId]; present {
		return ok, nil
	}
	return true, nil
}

func (f *FakeUserManager) GetPlayAccess(ctx context.Context, userId string, item *sessions.BaseItem) (sessions.PlayAccess, error) {
	if f.PlayAccessByItem == nil {
		return sessions.PlayAccessFull, nil
	}
	if access, ok := f.PlayAccessByItem[item.Id]; ok {
		return access, nil
	}
	return sessions.PlayAccessFull, nil
}

// FakeUserDataManager is an in-memory UserDataManager keyed by (userId, itemId).
type FakeUserDataManager struct {
	mu    sync.Mutex
	data  map[string]*sessions.UserItemData
	Saves []SaveCall
}

// SaveCall records one SaveUserData invocation, for test assertions.
type SaveCall struct {
	UserId string
	ItemId string
	Reason sessions.SaveReason
	Data   sessions.UserItemData
}

func NewFakeUserDataManager() *FakeUserDataManager {
	return &FakeUserDataManager{data: make(map[string]*sessions.UserItemData)}
}

func dataKey(userId, itemId string) string { return userId + "|" + itemId }

func (f *FakeUserDataManager) GetUserData(ctx context.Context, userId string, item *sessions.BaseItem) (*sessions.UserItemData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dataKey(userId, item.Id)
	if existing, ok := f.data[key]; ok {
		copy := *existing
		return &copy, nil
	}
	return &sessions.UserItemData{}, nil
}

func (f *FakeUserDataManager) UpdatePlayState(ctx context.Context, item *sessions.BaseItem, data *sessions.UserItemData, positionTicks int64) (bool, error) {
	data.PlaybackPositionTicks = positionTicks
	playedToCompletion := item.RunTimeTicks > 0 && positionTicks >= item.RunTimeTicks*9/10
	if playedToCompletion {
		data.Played = true
		data.PlayCount++
	}
	return playedToCompletion, nil
}

func (f *FakeUserDataManager) SaveUserData(ctx context.Context, userId string, item *sessions.BaseItem, data *sessions.UserItemData, reason sessions.SaveReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *data
	f.data[dataKey(userId, item.Id)] = &copy
	f.Saves = append(f.Saves, SaveCall{UserId: userId, ItemId: item.Id, Reason: reason, Data: copy})
	return nil
}

// FakeLibraryManager is an in-memory LibraryManager over a fixed item set.
type FakeLibraryManager struct {
	mu       sync.Mutex
	Items    map[string]*sessions.BaseItem
	Episodes map[string][]*sessions.BaseItem // keyed by seriesId
}

func NewFakeLibraryManager() *FakeLibraryManager {
	return &FakeLibraryManager{
		Items:    make(map[string]*sessions.BaseItem),
		Episodes: make(map[string][]*sessions.BaseItem),
	}
}

func (f *FakeLibraryManager) AddItem(item *sessions.BaseItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Items[item.Id] = item
}

func (f *FakeLibraryManager) GetItemById(ctx context.Context, id string) (*sessions.BaseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.Items[id]
	if !ok {
		return nil, nil
	}
	return item, nil
}

func (f *FakeLibraryManager) GetDescendants(ctx context.Context, item *sessions.BaseItem) ([]*sessions.BaseItem, error) {
	out := append([]*sessions.BaseItem(nil), item.Children...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortName < out[j].SortName })
	return out, nil
}

func (f *FakeLibraryManager) GetEpisodes(ctx context.Context, seriesId string) ([]*sessions.BaseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Episodes[seriesId], nil
}

// FakeMusicManager is an in-memory MusicManager.
type FakeMusicManager struct {
	mu  sync.Mutex
	Mix map[string][]*sessions.BaseItem // keyed by seed item id
}

func NewFakeMusicManager() *FakeMusicManager {
	return &FakeMusicManager{Mix: make(map[string][]*sessions.BaseItem)}
}

func (f *FakeMusicManager) GetInstantMixFromItem(ctx context.Context, item *sessions.BaseItem, userId string) ([]*sessions.BaseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mix[item.Id], nil
}

// FakeMediaSourceManager is an in-memory MediaSourceManager.
type FakeMediaSourceManager struct {
	mu      sync.Mutex
	Sources map[string]*sessions.MediaSourceInfo
	Closed  []string
}

func NewFakeMediaSourceManager() *FakeMediaSourceManager {
	return &FakeMediaSourceManager{Sources: make(map[string]*sessions.MediaSourceInfo)}
}

func (f *FakeMediaSourceManager) GetMediaSource(ctx context.Context, item *sessions.BaseItem, mediaSourceId, liveStreamId string) (*sessions.MediaSourceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.Sources[mediaSourceId]
	if !ok {
		return nil, nil
	}
	return src, nil
}

func (f *FakeMediaSourceManager) CloseLiveStream(ctx context.Context, liveStreamId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = append(f.Closed, liveStreamId)
	return nil
}

// FakeDeviceManager is an in-memory DeviceManager.
type FakeDeviceManager struct {
	mu      sync.Mutex
	devices map[string]*sessions.DeviceCapabilitiesRecord
}

func NewFakeDeviceManager() *FakeDeviceManager {
	return &FakeDeviceManager{devices: make(map[string]*sessions.DeviceCapabilitiesRecord)}
}

func (f *FakeDeviceManager) RegisterDevice(ctx context.Context, id, name, app, version, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devices[id]; !ok {
		f.devices[id] = &sessions.DeviceCapabilitiesRecord{DeviceId: id, Name: name}
	}
	return nil
}

func (f *FakeDeviceManager) GetDevice(ctx context.Context, id string) (*sessions.DeviceCapabilitiesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dev, ok := f.devices[id]
	if !ok {
		return nil, nil
	}
	return dev, nil
}

func (f *FakeDeviceManager) CanAccessDevice(ctx context.Context, userId, deviceId string) (bool, error) {
	return true, nil
}

func (f *FakeDeviceManager) GetCapabilities(ctx context.Context, deviceId string) (*sessions.Capabilities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dev, ok := f.devices[deviceId]
	if !ok {
		return nil, nil
	}
	caps := dev.Capabilities
	return &caps, nil
}

func (f *FakeDeviceManager) SaveCapabilities(ctx context.Context, deviceId string, caps sessions.Capabilities) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dev, ok := f.devices[deviceId]
	if !ok {
		dev = &sessions.DeviceCapabilitiesRecord{DeviceId: deviceId}
		f.devices[deviceId] = dev
	}
	dev.Capabilities = caps
	return nil
}

// FakeAuthenticationRepository is an in-memory AuthenticationRepository.
type FakeAuthenticationRepository struct {
	mu     sync.Mutex
	tokens []*sessions.AuthTokenInfo
}

func NewFakeAuthenticationRepository() *FakeAuthenticationRepository {
	return &FakeAuthenticationRepository{}
}

func (f *FakeAuthenticationRepository) Get(ctx context.Context, query sessions.AuthTokenQuery) ([]*sessions.AuthTokenInfo, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*sessions.AuthTokenInfo
	for _, t := range f.tokens {
		if query.AccessToken != "" && t.AccessToken != query.AccessToken {
			continue
		}
		if query.UserId != "" && t.UserId != query.UserId {
			continue
		}
		if query.DeviceId != "" && t.DeviceId != query.DeviceId {
			continue
		}
		if query.IsActive != nil && t.IsActive != *query.IsActive {
			continue
		}
		out = append(out, t)
		if query.Limit > 0 && len(out) >= query.Limit {
			break
		}
	}
	return out, int64(len(out)), nil
}

func (f *FakeAuthenticationRepository) Create(ctx context.Context, info *sessions.AuthTokenInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *info
	f.tokens = append(f.tokens, &copy)
	return nil
}

func (f *FakeAuthenticationRepository) Update(ctx context.Context, info *sessions.AuthTokenInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.AccessToken == info.AccessToken {
			*t = *info
			return nil
		}
	}
	return fmt.Errorf("token %q not found", info.AccessToken)
}

// FixedPRNG is a PRNG whose Shuffle applies a caller-supplied fixed
// permutation instead of real randomness, so PlayShuffle expansion is
// deterministic under test.
type FixedPRNG struct {
	// Permutation[i] is, for an n-element Shuffle call, the source index
	// moved to position i. Len(Permutation) must equal n for the test's
	// Shuffle calls to succeed; a mismatched length panics, surfacing a
	// test-authoring mistake immediately rather than behaving unpredictably.
	Permutation []int
}

func (p *FixedPRNG) Shuffle(n int, swap func(i, j int)) {
	if len(p.Permutation) != n {
		panic(fmt.Sprintf("sessionsfakes: FixedPRNG configured for %d elements, got %d", len(p.Permutation), n))
	}
	// current[i] is the original index currently sitting at position i.
	// For each position i in turn, locate wherever the desired source
	// index is right now and swap it into place.
	current := make([]int, n)
	for i := range current {
		current[i] = i
	}
	for i := 0; i < n; i++ {
		want := p.Permutation[i]
		if current[i] == want {
			continue
		}
		j := i + 1
		for ; j < n; j++ {
			if current[j] == want {
				break
			}
		}
		swap(i, j)
		current[i], current[j] = current[j], current[i]
	}
}

// NoShufflePRNG leaves order unchanged, for tests that need a PRNG present
// without exercising shuffling.
type NoShufflePRNG struct{}

func (NoShufflePRNG) Shuffle(n int, swap func(i, j int)) {}

// FakeSessionController is an in-memory SessionController recording every
// call for test assertions.
type FakeSessionController struct {
	mu sync.Mutex

	live     bool
	Sent     []FakeControllerCall
	Descr    sessions.TransportDescriptor
	disposed bool
}

// FakeControllerCall records one Send*/notification call.
type FakeControllerCall struct {
	Kind string
	Data interface{}
}

// NewFakeSessionController constructs a live fake controller.
func NewFakeSessionController(key string) *FakeSessionController {
	return &FakeSessionController{live: true, Descr: sessions.TransportDescriptor{Kind: "fake", Key: key}}
}

func (f *FakeSessionController) IsLive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

func (f *FakeSessionController) SetLive(live bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = live
}

func (f *FakeSessionController) OnActivity() {}

func (f *FakeSessionController) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
	f.live = false
}

func (f *FakeSessionController) Disposed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disposed
}

func (f *FakeSessionController) Descriptor() sessions.TransportDescriptor {
	return f.Descr
}

func (f *FakeSessionController) record(kind string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, FakeControllerCall{Kind: kind, Data: data})
}

func (f *FakeSessionController) SendGeneralCommand(ctx context.Context, cmd sessions.GeneralCommand) error {
	f.record("GeneralCommand", cmd)
	return nil
}

func (f *FakeSessionController) SendPlaystateCommand(ctx context.Context, cmd sessions.PlaystateCommand) error {
	f.record("PlaystateCommand", cmd)
	return nil
}

func (f *FakeSessionController) SendPlayCommand(ctx context.Context, req sessions.PlayRequest) error {
	f.record("PlayCommand", req)
	return nil
}

func (f *FakeSessionController) SendPlaybackStartNotification(ctx context.Context, session *sessions.Session) error {
	f.record("PlaybackStart", session.Id)
	return nil
}

func (f *FakeSessionController) SendPlaybackStoppedNotification(ctx context.Context, session *sessions.Session) error {
	f.record("PlaybackStopped", session.Id)
	return nil
}

func (f *FakeSessionController) SendSessionEndedNotification(ctx context.Context, session *sessions.Session) error {
	f.record("SessionEnded", session.Id)
	return nil
}

func (f *FakeSessionController) SendServerShutdownNotification(ctx context.Context) error {
	f.record("ServerShutdown", nil)
	return nil
}

func (f *FakeSessionController) SendServerRestartNotification(ctx context.Context) error {
	f.record("ServerRestarting", nil)
	return nil
}

func (f *FakeSessionController) SendRestartRequiredNotification(ctx context.Context) error {
	f.record("RestartRequired", nil)
	return nil
}

// FakeSessionControllerFactory returns pre-registered controllers by deviceId.
type FakeSessionControllerFactory struct {
	mu       sync.Mutex
	byDevice map[string]*FakeSessionController
}

func NewFakeSessionControllerFactory() *FakeSessionControllerFactory {
	return &FakeSessionControllerFactory{byDevice: make(map[string]*FakeSessionController)}
}

// Register binds ctrl as the controller returned for deviceId.
func (f *FakeSessionControllerFactory) Register(deviceId string, ctrl *FakeSessionController) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDevice[deviceId] = ctrl
}

func (f *FakeSessionControllerFactory) GetSessionController(session *sessions.Session) sessions.SessionController {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctrl, ok := f.byDevice[session.DeviceId]; ok {
		return ctrl
	}
	return nil
}
