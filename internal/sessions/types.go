// Package sessions implements the Session Manager: session lifecycle
// tracking, the playback state machine, remote-control dispatch,
// authentication/token lifecycle, and event fan-out.
package sessions

import (
	"sync"
	"time"
)

// PlayMethod describes how a now-playing item is being delivered.
type PlayMethod string

const (
	PlayMethodDirectPlay   PlayMethod = "DirectPlay"
	PlayMethodDirectStream PlayMethod = "DirectStream"
	PlayMethodTranscode    PlayMethod = "Transcode"
)

// RepeatMode describes the client's repeat setting.
type RepeatMode string

const (
	RepeatNone RepeatMode = "RepeatNone"
	RepeatOne  RepeatMode = "RepeatOne"
	RepeatAll  RepeatMode = "RepeatAll"
)

// PlayState is the mutable playback sub-state of a Session.
type PlayState struct {
	IsPaused            bool
	PositionTicks       int64
	MediaSourceId       string
	CanSeek             bool
	IsMuted             bool
	VolumeLevel         int
	AudioStreamIndex    int
	SubtitleStreamIndex int
	PlayMethod          PlayMethod
	RepeatMode          RepeatMode
	LiveStreamId        string
}

// Capabilities is the opaque, client-declared feature record.
type Capabilities struct {
	PlayableMediaTypes   []string
	SupportedCommands    []string
	SupportsMediaControl bool
	IconUrl              string
	MessageCallbackUrl   string
}

// BaseItemKind tags the polymorphic library item variant the spec calls
// for (leaf / folder / by-name / episode) instead of deep inheritance.
type BaseItemKind string

const (
	KindLeaf    BaseItemKind = "leaf"
	KindFolder  BaseItemKind = "folder"
	KindByName  BaseItemKind = "by_name"
	KindEpisode BaseItemKind = "episode"
)

// BaseItem is the narrow library-item shape the core needs, per spec §6.
type BaseItem struct {
	Id                   string
	Name                 string
	SortName             string
	MediaType            string
	RunTimeTicks         int64
	SupportsPlayedStatus bool
	IsFolder             bool
	IsVirtualItem        bool
	Kind                 BaseItemKind
	HasMediaSources      bool

	// Episode/Series facet, populated when Kind == KindEpisode.
	SeriesId      string
	EpisodeNumber int

	// Folder/ByName facet: pre-resolved descendants, used by
	// TranslateItemForPlayback instead of a live library query.
	Children []*BaseItem
}

// MediaSourceInfo is the narrow media-source snapshot the core needs.
type MediaSourceInfo struct {
	Id           string
	RunTimeTicks int64
}

// NowPlayingItem is the DTO snapshot of the item currently playing.
type NowPlayingItem struct {
	Id           string
	Name         string
	MediaType    string
	RunTimeTicks int64
}

// TranscodingInfo is an opaque snapshot owned by the transcoding subsystem;
// the core only clears or carries it, never interprets it.
type TranscodingInfo struct {
	Container string
	Data      map[string]interface{}
}

// AdditionalUser pairs a user id with its display name.
type AdditionalUser struct {
	UserId   string
	UserName string
}

// Session represents one live connection from one client app on one device.
type Session struct {
	// Identity — immutable for the session's lifetime.
	Id                 string
	Client             string
	DeviceId           string
	ApplicationVersion string
	DeviceName         string

	// Association.
	UserId          string
	UserName        string
	AdditionalUsers []AdditionalUser

	// Endpoint.
	RemoteEndPoint string
	AppIconUrl     string

	mu sync.Mutex

	// Transport. Guarded by mu — read through Controller(), written through
	// SetController() — since activity reports and remote-control reads race
	// on it per spec §5.
	sessionController SessionController

	// Timing.
	lastActivityDate    time.Time
	lastPlaybackCheckIn time.Time

	// Playback.
	nowPlayingItem     *NowPlayingItem
	fullNowPlayingItem *BaseItem
	playState          PlayState
	transcodingInfo    *TranscodingInfo

	// Capabilities.
	capabilities Capabilities

	// Auto-progress timer, owned by the session per spec invariant 5.
	autoProgressTimer *autoProgressTimer
}

// LastActivityDate returns the session's last-activity timestamp.
func (s *Session) LastActivityDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityDate
}

// SetLastActivityDate advances lastActivityDate, enforcing invariant 6
// (monotonic non-decreasing): an older timestamp never overwrites a newer one.
func (s *Session) SetLastActivityDate(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.lastActivityDate) {
		s.lastActivityDate = t
	}
}

// LastPlaybackCheckIn returns the timestamp last advanced by a non-automated
// progress report.
func (s *Session) LastPlaybackCheckIn() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPlaybackCheckIn
}

// SetLastPlaybackCheckIn updates the check-in clock. Callers must only
// invoke this for real (non-automated) progress reports — this is the key
// idle-detection invariant from spec §4.E.
func (s *Session) SetLastPlaybackCheckIn(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPlaybackCheckIn = t
}

// NowPlayingItem returns a snapshot of the current now-playing item, or nil.
func (s *Session) NowPlayingItem() *NowPlayingItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nowPlayingItem
}

// FullNowPlayingItem returns the cached library-item entity behind the
// now-playing DTO, or nil.
func (s *Session) FullNowPlayingItem() *BaseItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullNowPlayingItem
}

// SetNowPlaying installs the now-playing item and its backing library
// entity together, preserving invariant 3 (nowPlayingItem == nil implies
// transcodingInfo == nil is enforced separately by ClearTranscodingInfo).
func (s *Session) SetNowPlaying(item *NowPlayingItem, full *BaseItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowPlayingItem = item
	s.fullNowPlayingItem = full
}

// ClearNowPlaying clears the now-playing item, its library-entity cache,
// play state, and transcoding info together (invariant 3).
func (s *Session) ClearNowPlaying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowPlayingItem = nil
	s.fullNowPlayingItem = nil
	s.playState = PlayState{}
	s.transcodingInfo = nil
}

// PlayState returns a copy of the current play state.
func (s *Session) PlayState() PlayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playState
}

// SetPlayState replaces the play state wholesale.
func (s *Session) SetPlayState(ps PlayState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playState = ps
}

// TranscodingInfo returns the current transcoding snapshot, or nil.
func (s *Session) TranscodingInfo() *TranscodingInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcodingInfo
}

// SetTranscodingInfo installs a new transcoding snapshot.
func (s *Session) SetTranscodingInfo(info *TranscodingInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcodingInfo = info
}

// ClearTranscodingInfo drops the transcoding snapshot.
func (s *Session) ClearTranscodingInfo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcodingInfo = nil
}

// Capabilities returns a copy of the session's declared capabilities.
func (s *Session) Capabilities() Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capabilities
}

// SetCapabilities replaces the session's declared capabilities wholesale.
func (s *Session) SetCapabilities(caps Capabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilities = caps
}

// PlayableMediaTypes returns the capability's playable media type list.
func (s *Session) PlayableMediaTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capabilities.PlayableMediaTypes
}

// Controller returns the session's bound transport controller, or nil.
func (s *Session) Controller() SessionController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionController
}

// SetController binds the session's transport controller.
func (s *Session) SetController(ctrl SessionController) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionController = ctrl
}

// IsActive reports whether the session has a live controller bound.
func (s *Session) IsActive() bool {
	controller := s.Controller()
	return controller != nil && controller.IsLive()
}

// Dispose cancels the auto-progress timer and disposes the bound
// controller, if it implements disposal.
func (s *Session) Dispose() {
	s.StopAutomaticProgress()

	controller := s.Controller()
	if disposer, ok := controller.(interface{ Dispose() }); ok {
		disposer.Dispose()
	}
}
