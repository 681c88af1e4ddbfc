package events

import (
	"fmt"
	"time"
)

// Session lifecycle and playback event types, published by the
// internal/sessions Manager (wired in by internal/sessions/sessionmodule) as
// sessions are created, authenticated, and driven through the playback state
// machine.
const (
	EventSessionStarted       EventType = "session.started"
	EventSessionEnded         EventType = "session.ended"
	EventSessionActivity      EventType = "session.activity"
	EventCapabilitiesChanged  EventType = "session.capabilities_changed"
	EventAuthenticationOK     EventType = "auth.succeeded"
	EventAuthenticationFailed EventType = "auth.failed"
	EventPlaybackStart        EventType = "playback.start"
	EventPlaybackProgress     EventType = "playback.progress"
	EventPlaybackStopped      EventType = "playback.stopped"
)

// SessionLifecycleData is the payload for session.started/session.ended.
type SessionLifecycleData struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
	DeviceID  string `json:"device_id"`
	UserID    string `json:"user_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// SessionActivityData is the payload for session.activity.
type SessionActivityData struct {
	SessionID  string    `json:"session_id"`
	LastActive time.Time `json:"last_active"`
}

// AuthenticationData is the payload for auth.succeeded/auth.failed.
type AuthenticationData struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	DeviceID  string `json:"device_id"`
	Reason    string `json:"reason,omitempty"`
}

// PlaybackEventData is the payload for playback.start/progress/stopped.
type PlaybackEventData struct {
	SessionID      string  `json:"session_id"`
	ItemID         string  `json:"item_id"`
	MediaType      string  `json:"media_type,omitempty"`
	PositionTicks  int64   `json:"position_ticks"`
	IsPaused       bool    `json:"is_paused"`
	PlaybackRate   float64 `json:"playback_rate,omitempty"`
	CompletionPerc float64 `json:"completion_percentage,omitempty"`
}

// NewSessionLifecycleEvent creates a session.started or session.ended event.
func NewSessionLifecycleEvent(eventType EventType, data SessionLifecycleData) Event {
	return Event{
		Type:     eventType,
		Source:   "sessionmodule",
		Title:    "Session Lifecycle",
		Message:  fmt.Sprintf("session %s %s", data.SessionID, eventType),
		Priority: PriorityNormal,
		Tags:     []string{"session", string(eventType)},
		Data: map[string]interface{}{
			"session_id": data.SessionID,
			"client_id":  data.ClientID,
			"device_id":  data.DeviceID,
			"user_id":    data.UserID,
			"reason":     data.Reason,
		},
		Timestamp: time.Now(),
	}
}

// NewSessionActivityEvent creates a session.activity event.
func NewSessionActivityEvent(data SessionActivityData) Event {
	return Event{
		Type:     EventSessionActivity,
		Source:   "sessionmodule",
		Title:    "Session Activity",
		Message:  fmt.Sprintf("session %s checked in", data.SessionID),
		Priority: PriorityLow,
		Tags:     []string{"session", "activity"},
		Data: map[string]interface{}{
			"session_id":  data.SessionID,
			"last_active": data.LastActive,
		},
		Timestamp: time.Now(),
	}
}

// NewCapabilitiesChangedEvent creates a session.capabilities_changed event.
func NewCapabilitiesChangedEvent(sessionID string) Event {
	return Event{
		Type:     EventCapabilitiesChanged,
		Source:   "sessionmodule",
		Title:    "Capabilities Changed",
		Message:  fmt.Sprintf("session %s reported new capabilities", sessionID),
		Priority: PriorityNormal,
		Tags:     []string{"session", "capabilities"},
		Data: map[string]interface{}{
			"session_id": sessionID,
		},
		Timestamp: time.Now(),
	}
}

// NewAuthenticationEvent creates an auth.succeeded or auth.failed event.
func NewAuthenticationEvent(eventType EventType, data AuthenticationData) Event {
	priority := PriorityNormal
	if eventType == EventAuthenticationFailed {
		priority = PriorityHigh
	}
	return Event{
		Type:     eventType,
		Source:   "sessionmodule",
		Title:    "Authentication",
		Message:  fmt.Sprintf("authentication %s for device %s", eventType, data.DeviceID),
		Priority: priority,
		Tags:     []string{"auth", string(eventType)},
		Data: map[string]interface{}{
			"session_id": data.SessionID,
			"user_id":    data.UserID,
			"device_id":  data.DeviceID,
			"reason":     data.Reason,
		},
		Timestamp: time.Now(),
	}
}

// NewPlaybackEvent creates a playback.start, playback.progress, or
// playback.stopped event.
func NewPlaybackEvent(eventType EventType, data PlaybackEventData) Event {
	return Event{
		Type:     eventType,
		Source:   "sessionmodule",
		Title:    "Playback",
		Message:  fmt.Sprintf("session %s %s item %s", data.SessionID, eventType, data.ItemID),
		Priority: PriorityNormal,
		Tags:     []string{"playback", string(eventType)},
		Data: map[string]interface{}{
			"session_id":            data.SessionID,
			"item_id":               data.ItemID,
			"media_type":            data.MediaType,
			"position_ticks":        data.PositionTicks,
			"is_paused":             data.IsPaused,
			"playback_rate":         data.PlaybackRate,
			"completion_percentage": data.CompletionPerc,
		},
		Timestamp: time.Now(),
	}
}
