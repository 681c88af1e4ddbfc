package sessions

import (
	"context"
	"time"
)

// User is the narrow user shape the core needs from UserManager, mirroring
// the "clear focused functionality, no internal types exposed" pattern in
// the teacher's internal/services/interfaces.go.
type User struct {
	Id                         string
	Name                       string
	LastActivityDate           time.Time
	EnableNextEpisodeAutoPlay  bool
	RememberAudioSelections    bool
	RememberSubtitleSelections bool
}

// UserItemData is the per-user, per-item play-state record.
type UserItemData struct {
	Played                bool
	PlayCount             int
	PlaybackPositionTicks int64
	LastPlayedDate        time.Time
	AudioStreamIndex      *int
	SubtitleStreamIndex   *int
}

// SaveReason classifies why UserDataManager.SaveUserData was invoked.
type SaveReason string

const (
	SaveReasonPlaybackStart    SaveReason = "PlaybackStart"
	SaveReasonPlaybackProgress SaveReason = "PlaybackProgress"
	SaveReasonPlaybackFinished SaveReason = "PlaybackFinished"
)

// UserManager resolves and authenticates users and exposes per-device
// access policy. An external collaborator per spec §1/§6.
type UserManager interface {
	GetUserById(ctx context.Context, userId string) (*User, error)
	GetUserByName(ctx context.Context, username string) (*User, error)
	AuthenticateUser(ctx context.Context, username, password string, remoteEndPoint string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	IsWithinParentalSchedule(ctx context.Context, userId string) (bool, error)
	CanAccessDevice(ctx context.Context, userId, deviceId string) (bool, error)
	GetPlayAccess(ctx context.Context, userId string, item *BaseItem) (PlayAccess, error)
}

// UserDataManager owns per-user playback progress and completion rules.
type UserDataManager interface {
	GetUserData(ctx context.Context, userId string, item *BaseItem) (*UserItemData, error)
	// UpdatePlayState applies positionTicks to data and returns whether the
	// item is now considered played to completion.
	UpdatePlayState(ctx context.Context, item *BaseItem, data *UserItemData, positionTicks int64) (playedToCompletion bool, err error)
	SaveUserData(ctx context.Context, userId string, item *BaseItem, data *UserItemData, reason SaveReason) error
}

// LibraryManager resolves library items by id and expands the tagged
// variants (by-name, folder, episode/series) the remote-control dispatcher
// needs to translate an item id into a concrete playback list.
type LibraryManager interface {
	GetItemById(ctx context.Context, id string) (*BaseItem, error)
	// GetDescendants returns the non-folder, non-virtual descendants of a
	// folder or by-name item (person, genre, studio, ...).
	GetDescendants(ctx context.Context, item *BaseItem) ([]*BaseItem, error)
	// GetEpisodes returns a series' episodes in broadcast order.
	GetEpisodes(ctx context.Context, seriesId string) ([]*BaseItem, error)
}

// PlayAccess is the per-user, per-item play permission the remote-control
// dispatcher gates SendPlayCommand on.
type PlayAccess string

const (
	PlayAccessFull PlayAccess = "Full"
	PlayAccessNone PlayAccess = "None"
)

// MusicManager generates instant-mix playlists from a seed item.
type MusicManager interface {
	GetInstantMixFromItem(ctx context.Context, item *BaseItem, userId string) ([]*BaseItem, error)
}

// MediaSourceManager resolves and manages media sources and live streams.
type MediaSourceManager interface {
	GetMediaSource(ctx context.Context, item *BaseItem, mediaSourceId, liveStreamId string) (*MediaSourceInfo, error)
	CloseLiveStream(ctx context.Context, liveStreamId string) error
}

// DeviceCapabilitiesRecord is the persisted capability snapshot for a device.
type DeviceCapabilitiesRecord struct {
	DeviceId     string
	Name         string
	IconUrl      string
	Capabilities Capabilities
}

// DeviceManager registers devices and persists their declared capabilities.
type DeviceManager interface {
	RegisterDevice(ctx context.Context, id, name, app, version, userId string) error
	GetDevice(ctx context.Context, id string) (*DeviceCapabilitiesRecord, error)
	CanAccessDevice(ctx context.Context, userId, deviceId string) (bool, error)
	GetCapabilities(ctx context.Context, deviceId string) (*Capabilities, error)
	SaveCapabilities(ctx context.Context, deviceId string, caps Capabilities) error
}

// AuthTokenQuery filters AuthenticationRepository.Get.
type AuthTokenQuery struct {
	AccessToken string
	UserId      string
	DeviceId    string
	IsActive    *bool
	Limit       int
}

// AuthTokenInfo is one row of the authentication token table.
type AuthTokenInfo struct {
	AccessToken      string
	DeviceId         string
	UserId           string
	IsActive         bool
	DateCreated      time.Time
	DateLastActivity time.Time
}

// AuthenticationRepository persists access tokens.
type AuthenticationRepository interface {
	Get(ctx context.Context, query AuthTokenQuery) ([]*AuthTokenInfo, int64, error)
	Create(ctx context.Context, info *AuthTokenInfo) error
	Update(ctx context.Context, info *AuthTokenInfo) error
}

// PRNG is an injected randomness source, so SendPlayCommand's PlayShuffle
// expansion is deterministic under test (spec §9 design note).
type PRNG interface {
	Shuffle(n int, swap func(i, j int))
}
