package sessions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
	"github.com/mantonx/viewra/internal/sessions/sessionsfakes"
)

func newPlaybackTestManager(t *testing.T) (*Manager, *sessionsfakes.FakeLibraryManager, *sessionsfakes.FakeUserDataManager) {
	t.Helper()
	lib := sessionsfakes.NewFakeLibraryManager()
	userData := sessionsfakes.NewFakeUserDataManager()
	m := NewManager(ManagerConfig{
		AuthRepo:        sessionsfakes.NewFakeAuthenticationRepository(),
		LibraryManager:  lib,
		UserDataManager: userData,
	})
	return m, lib, userData
}

func mustLogActivity(t *testing.T, m *Manager, deviceId string) *Session {
	t.Helper()
	session, err := m.LogSessionActivity(context.Background(), "Web", "1.0", deviceId, "Chrome", "127.0.0.1", &User{Id: "user-1", Name: "Alice"})
	require.NoError(t, err)
	return session
}

func TestPlayback_StartProgressStop_RoundTrip(t *testing.T) {
	m, lib, userData := newPlaybackTestManager(t)
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", Name: "Movie", MediaType: "Video", RunTimeTicks: 10_000_000, SupportsPlayedStatus: true}
	lib.AddItem(item)

	session := mustLogActivity(t, m, "device-1")

	require.NoError(t, m.OnPlaybackStart(context.Background(), &PlaybackStartInfo{
		SessionId: session.Id,
		ItemId:    item.Id,
	}))
	assert.NotNil(t, session.NowPlayingItem())
	assert.Equal(t, item.Id, session.NowPlayingItem().Id)

	position := int64(5_000_000)
	require.NoError(t, m.OnPlaybackProgress(context.Background(), &PlaybackProgressInfo{
		SessionId:     session.Id,
		ItemId:        item.Id,
		PositionTicks: &position,
		IsPaused:      true,
	}, false))
	assert.Equal(t, position, session.PlayState().PositionTicks)
	assert.True(t, session.PlayState().IsPaused)
	assert.False(t, session.LastPlaybackCheckIn().IsZero())

	require.NoError(t, m.OnPlaybackStopped(context.Background(), &PlaybackStopInfo{
		SessionId:     session.Id,
		ItemId:        item.Id,
		PositionTicks: &position,
	}))
	assert.Nil(t, session.NowPlayingItem())

	require.NotEmpty(t, userData.Saves)
	last := userData.Saves[len(userData.Saves)-1]
	assert.Equal(t, SaveReasonPlaybackFinished, last.Reason)
}

func TestPlaybackProgress_AutomatedTickDoesNotAdvanceCheckIn(t *testing.T) {
	m, lib, _ := newPlaybackTestManager(t)
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", Name: "Movie", MediaType: "Video"}
	lib.AddItem(item)
	session := mustLogActivity(t, m, "device-1")

	require.NoError(t, m.OnPlaybackStart(context.Background(), &PlaybackStartInfo{SessionId: session.Id, ItemId: item.Id}))
	session.StopAutomaticProgress() // avoid a background timer racing this assertion

	before := session.LastPlaybackCheckIn()

	position := int64(1_000_000)
	require.NoError(t, m.OnPlaybackProgress(context.Background(), &PlaybackProgressInfo{
		SessionId:     session.Id,
		ItemId:        item.Id,
		PositionTicks: &position,
	}, true))

	assert.Equal(t, before, session.LastPlaybackCheckIn())
	assert.Equal(t, position, session.PlayState().PositionTicks)
}

func TestPlaybackStopped_NegativePositionTicksIsInvalidArgument(t *testing.T) {
	m, _, _ := newPlaybackTestManager(t)
	defer m.Shutdown()

	session := mustLogActivity(t, m, "device-1")
	negative := int64(-1)

	err := m.OnPlaybackStopped(context.Background(), &PlaybackStopInfo{
		SessionId:     session.Id,
		PositionTicks: &negative,
	})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeInvalidArgument, sessionerrors.GetType(err))
}

func TestPlaybackStopped_NilPositionTicksIsTreatedAsCompletion(t *testing.T) {
	m, lib, userData := newPlaybackTestManager(t)
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", MediaType: "Video", SupportsPlayedStatus: true}
	lib.AddItem(item)
	session := mustLogActivity(t, m, "device-1")

	require.NoError(t, m.OnPlaybackStart(context.Background(), &PlaybackStartInfo{SessionId: session.Id, ItemId: item.Id}))
	require.NoError(t, m.OnPlaybackStopped(context.Background(), &PlaybackStopInfo{SessionId: session.Id, ItemId: item.Id}))

	require.NotEmpty(t, userData.Saves)
	last := userData.Saves[len(userData.Saves)-1]
	assert.True(t, last.Data.Played)
}

func TestOnPlaybackStart_UnknownSessionIdReturnsNotFound(t *testing.T) {
	m, _, _ := newPlaybackTestManager(t)
	defer m.Shutdown()

	err := m.OnPlaybackStart(context.Background(), &PlaybackStartInfo{SessionId: "missing", ItemId: "item-1"})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeNotFound, sessionerrors.GetType(err))
}

func TestOnPlaybackStart_NilInfoIsInvalidArgument(t *testing.T) {
	m, _, _ := newPlaybackTestManager(t)
	defer m.Shutdown()

	err := m.OnPlaybackStart(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeInvalidArgument, sessionerrors.GetType(err))
}
