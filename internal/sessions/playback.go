package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mantonx/viewra/internal/config"
	"github.com/mantonx/viewra/internal/events"
	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
)

// PlaybackStartInfo is the payload of OnPlaybackStart.
type PlaybackStartInfo struct {
	SessionId     string
	ItemId        string
	MediaSourceId string
	PositionTicks int64
	PlayMethod    PlayMethod
	LiveStreamId  string
}

// PlaybackProgressInfo is the payload of OnPlaybackProgress. PositionTicks
// is a pointer because "positionTicks not reported" is distinct from
// "positionTicks is 0" (spec §4.E).
type PlaybackProgressInfo struct {
	SessionId           string
	ItemId              string
	MediaSourceId       string
	PositionTicks       *int64
	IsPaused            bool
	IsMuted             bool
	VolumeLevel         int
	AudioStreamIndex    int
	SubtitleStreamIndex int
	PlayMethod          PlayMethod
	RepeatMode          RepeatMode
	CanSeek             bool
	LiveStreamId        string
}

// PlaybackStopInfo is the payload of OnPlaybackStopped. PositionTicks nil
// means the stop arrived without a position, which is treated as
// played-to-completion (spec §4.E, §8).
type PlaybackStopInfo struct {
	SessionId     string
	ItemId        string
	MediaSourceId string
	PositionTicks *int64
	LiveStreamId  string
	Item          *NowPlayingItem
}

// OnPlaybackStart transitions a session Idle → Playing, per spec §4.E.
func (m *Manager) OnPlaybackStart(ctx context.Context, info *PlaybackStartInfo) error {
	const op = "OnPlaybackStart"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	if info == nil {
		return sessionerrors.InvalidArgumentError(op, fmt.Errorf("info is required"))
	}

	session := m.registry.getById(info.SessionId)
	if session == nil {
		return sessionerrors.NotFoundError(op, fmt.Errorf("session %q not found", info.SessionId))
	}

	nowPlaying, fullItem, _ := m.resolveNowPlaying(ctx, session, info.ItemId, info.MediaSourceId)
	session.SetNowPlaying(nowPlaying, fullItem)

	session.SetPlayState(PlayState{
		PositionTicks: info.PositionTicks,
		MediaSourceId: info.MediaSourceId,
		PlayMethod:    info.PlayMethod,
		LiveStreamId:  info.LiveStreamId,
	})

	if info.PlayMethod != PlayMethodTranscode {
		session.ClearTranscodingInfo()
	}

	session.StartAutomaticProgress(
		m.autoProgressInterval(),
		autoProgressInfo{SessionId: session.Id, ItemId: info.ItemId, PositionTicks: info.PositionTicks},
		m.autoProgressTick,
	)

	if fullItem != nil && m.userDataManager != nil {
		for _, userId := range m.usersFor(session) {
			m.recordPlaybackStartForUser(ctx, userId, fullItem)
		}
	}

	m.publishEvent(events.NewPlaybackEvent(events.EventPlaybackStart, events.PlaybackEventData{
		SessionID:     session.Id,
		ItemID:        info.ItemId,
		PositionTicks: info.PositionTicks,
	}))

	m.fanOut(ctx, op, func(ctx context.Context, ctrl SessionController) error {
		return ctrl.SendPlaybackStartNotification(ctx, session)
	})

	m.idle.arm()
	return nil
}

// OnPlaybackProgress advances a session's play-state. Automated ticks
// (isAutomated=true) never move lastPlaybackCheckIn, the idle-detection
// invariant from spec §4.E.
func (m *Manager) OnPlaybackProgress(ctx context.Context, info *PlaybackProgressInfo, isAutomated bool) error {
	const op = "OnPlaybackProgress"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	if info == nil {
		return sessionerrors.InvalidArgumentError(op, fmt.Errorf("info is required"))
	}

	session := m.registry.getById(info.SessionId)
	if session == nil {
		return sessionerrors.NotFoundError(op, fmt.Errorf("session %q not found", info.SessionId))
	}

	if nowPlaying, fullItem, err := m.resolveNowPlaying(ctx, session, info.ItemId, info.MediaSourceId); err == nil {
		session.SetNowPlaying(nowPlaying, fullItem)
	}

	ps := session.PlayState()
	if info.PositionTicks != nil {
		ps.PositionTicks = *info.PositionTicks
	}
	ps.IsPaused = info.IsPaused
	ps.IsMuted = info.IsMuted
	ps.VolumeLevel = info.VolumeLevel
	ps.AudioStreamIndex = info.AudioStreamIndex
	ps.SubtitleStreamIndex = info.SubtitleStreamIndex
	ps.PlayMethod = info.PlayMethod
	ps.RepeatMode = info.RepeatMode
	ps.CanSeek = info.CanSeek
	ps.LiveStreamId = info.LiveStreamId
	if info.MediaSourceId != "" {
		ps.MediaSourceId = info.MediaSourceId
	}
	session.SetPlayState(ps)

	if !isAutomated {
		session.SetLastPlaybackCheckIn(time.Now().UTC())
	}

	if info.PositionTicks != nil && m.userDataManager != nil {
		if fullItem := session.FullNowPlayingItem(); fullItem != nil {
			for _, userId := range m.usersFor(session) {
				m.recordPlaybackProgressForUser(ctx, userId, fullItem, *info.PositionTicks, info.AudioStreamIndex, info.SubtitleStreamIndex)
			}
		}
	}

	m.publishEvent(events.NewPlaybackEvent(events.EventPlaybackProgress, events.PlaybackEventData{
		SessionID:     session.Id,
		ItemID:        info.ItemId,
		PositionTicks: ps.PositionTicks,
		IsPaused:      info.IsPaused,
	}))

	if !isAutomated {
		session.StartAutomaticProgress(
			m.autoProgressInterval(),
			autoProgressInfo{SessionId: session.Id, ItemId: info.ItemId, PositionTicks: ps.PositionTicks},
			m.autoProgressTick,
		)
	}

	m.idle.arm()
	return nil
}

// OnPlaybackStopped transitions a session Playing/Paused → Stopped → Idle.
func (m *Manager) OnPlaybackStopped(ctx context.Context, info *PlaybackStopInfo) error {
	const op = "OnPlaybackStopped"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	if info == nil {
		return sessionerrors.InvalidArgumentError(op, fmt.Errorf("info is required"))
	}
	if info.PositionTicks != nil && *info.PositionTicks < 0 {
		return sessionerrors.InvalidArgumentError(op, fmt.Errorf("positionTicks must be >= 0"))
	}

	session := m.registry.getById(info.SessionId)
	if session == nil {
		return sessionerrors.NotFoundError(op, fmt.Errorf("session %q not found", info.SessionId))
	}

	session.StopAutomaticProgress()

	if info.MediaSourceId == "" {
		info.MediaSourceId = info.ItemId
	}

	var fullItem *BaseItem
	if m.libraryManager != nil && info.ItemId != "" {
		if it, err := m.libraryManager.GetItemById(ctx, info.ItemId); err == nil {
			fullItem = it
		}
	}
	if fullItem == nil {
		fullItem = session.FullNowPlayingItem()
	}

	if info.Item == nil {
		if item := session.NowPlayingItem(); item != nil {
			info.Item = item
		} else if fullItem != nil {
			info.Item = &NowPlayingItem{
				Id:           fullItem.Id,
				Name:         fullItem.Name,
				MediaType:    fullItem.MediaType,
				RunTimeTicks: fullItem.RunTimeTicks,
			}
		}
	}

	position := "unknown"
	if info.PositionTicks != nil {
		position = fmt.Sprintf("%dms", *info.PositionTicks/10000)
	}
	m.logger.Info("playback stopped", "session_id", session.Id, "position", position)

	session.ClearNowPlaying()

	if fullItem != nil && m.userDataManager != nil {
		for _, userId := range m.usersFor(session) {
			m.recordPlaybackStopForUser(ctx, userId, fullItem, info.PositionTicks)
		}
	}

	if info.LiveStreamId != "" && m.mediaSourceManager != nil {
		if err := m.mediaSourceManager.CloseLiveStream(ctx, info.LiveStreamId); err != nil {
			m.logError("close live stream", err)
		}
	}

	itemId := info.ItemId
	if info.Item != nil {
		itemId = info.Item.Id
	}
	m.publishEvent(events.NewPlaybackEvent(events.EventPlaybackStopped, events.PlaybackEventData{
		SessionID: session.Id,
		ItemID:    itemId,
	}))

	m.fanOut(ctx, op, func(ctx context.Context, ctrl SessionController) error {
		return ctrl.SendPlaybackStoppedNotification(ctx, session)
	})

	return nil
}

// resolveNowPlaying is UpdateNowPlayingItem, per spec §4.E: reuse the
// session's current now-playing item if it is unchanged, else resolve the
// library item and its media source to build a fresh snapshot.
func (m *Manager) resolveNowPlaying(ctx context.Context, session *Session, itemId, mediaSourceId string) (*NowPlayingItem, *BaseItem, error) {
	if mediaSourceId == "" {
		mediaSourceId = itemId
	}
	if itemId == "" || m.libraryManager == nil {
		return session.NowPlayingItem(), session.FullNowPlayingItem(), nil
	}

	item, err := m.libraryManager.GetItemById(ctx, itemId)
	if err != nil || item == nil {
		return session.NowPlayingItem(), session.FullNowPlayingItem(), err
	}

	if existing := session.NowPlayingItem(); existing != nil && existing.Id == item.Id {
		return existing, session.FullNowPlayingItem(), nil
	}

	runTimeTicks := item.RunTimeTicks
	if item.HasMediaSources && m.mediaSourceManager != nil {
		if src, err := m.mediaSourceManager.GetMediaSource(ctx, item, mediaSourceId, ""); err == nil && src != nil {
			runTimeTicks = src.RunTimeTicks
		}
	}

	return &NowPlayingItem{
		Id:           item.Id,
		Name:         item.Name,
		MediaType:    item.MediaType,
		RunTimeTicks: runTimeTicks,
	}, item, nil
}

func (m *Manager) usersFor(s *Session) []string {
	var ids []string
	if s.UserId != "" {
		ids = append(ids, s.UserId)
	}
	for _, au := range s.AdditionalUsers {
		if au.UserId != "" {
			ids = append(ids, au.UserId)
		}
	}
	return ids
}

func (m *Manager) recordPlaybackStartForUser(ctx context.Context, userId string, item *BaseItem) {
	data, err := m.userDataManager.GetUserData(ctx, userId, item)
	if err != nil {
		m.logError("get user data", err)
		return
	}
	data.PlayCount++
	data.LastPlayedDate = time.Now().UTC()
	if item.SupportsPlayedStatus && !strings.EqualFold(item.MediaType, "Video") {
		data.Played = true
	}
	if err := m.userDataManager.SaveUserData(ctx, userId, item, data, SaveReasonPlaybackStart); err != nil {
		m.logError("save user data", err)
	}
}

func (m *Manager) recordPlaybackProgressForUser(ctx context.Context, userId string, item *BaseItem, positionTicks int64, audioIdx, subtitleIdx int) {
	data, err := m.userDataManager.GetUserData(ctx, userId, item)
	if err != nil {
		m.logError("get user data", err)
		return
	}
	if _, err := m.userDataManager.UpdatePlayState(ctx, item, data, positionTicks); err != nil {
		m.logError("update play state", err)
		return
	}

	if m.userManager != nil {
		if user, err := m.userManager.GetUserById(ctx, userId); err == nil && user != nil {
			if user.RememberAudioSelections {
				idx := audioIdx
				data.AudioStreamIndex = &idx
			} else {
				data.AudioStreamIndex = nil
			}
			if user.RememberSubtitleSelections {
				idx := subtitleIdx
				data.SubtitleStreamIndex = &idx
			} else {
				data.SubtitleStreamIndex = nil
			}
		}
	}

	if err := m.userDataManager.SaveUserData(ctx, userId, item, data, SaveReasonPlaybackProgress); err != nil {
		m.logError("save user data", err)
	}
}

func (m *Manager) recordPlaybackStopForUser(ctx context.Context, userId string, item *BaseItem, positionTicks *int64) {
	data, err := m.userDataManager.GetUserData(ctx, userId, item)
	if err != nil {
		m.logError("get user data", err)
		return
	}

	if positionTicks != nil {
		if _, err := m.userDataManager.UpdatePlayState(ctx, item, data, *positionTicks); err != nil {
			m.logError("update play state", err)
			return
		}
	} else {
		data.Played = item.SupportsPlayedStatus
		data.PlaybackPositionTicks = 0
		data.PlayCount++
	}

	if err := m.userDataManager.SaveUserData(ctx, userId, item, data, SaveReasonPlaybackFinished); err != nil {
		m.logError("save user data", err)
	}
}

func (m *Manager) autoProgressInterval() time.Duration {
	return config.Get().Sessions.AutoProgressInterval
}

// autoProgressTick replays the session's current play state as an automated
// progress report, so paused/stalled clients still keep the server's view
// fresh without advancing lastPlaybackCheckIn (spec §4.B).
func (m *Manager) autoProgressTick(info autoProgressInfo) {
	session := m.registry.getById(info.SessionId)
	if session == nil {
		return
	}
	ps := session.PlayState()
	progress := &PlaybackProgressInfo{
		SessionId:           info.SessionId,
		ItemId:              info.ItemId,
		MediaSourceId:       ps.MediaSourceId,
		PositionTicks:       &ps.PositionTicks,
		IsPaused:            ps.IsPaused,
		IsMuted:             ps.IsMuted,
		VolumeLevel:         ps.VolumeLevel,
		AudioStreamIndex:    ps.AudioStreamIndex,
		SubtitleStreamIndex: ps.SubtitleStreamIndex,
		PlayMethod:          ps.PlayMethod,
		RepeatMode:          ps.RepeatMode,
		CanSeek:             ps.CanSeek,
		LiveStreamId:        ps.LiveStreamId,
	}
	if err := m.OnPlaybackProgress(context.Background(), progress, true); err != nil {
		m.logError("auto-progress tick", err)
	}
}
