package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/viewra/internal/sessions/sessionsfakes"
)

// TestIdleSweeper_TickStopsStalePlayback exercises spec §4.F / §8's idle
// termination scenario directly: OnPlaybackStart arms the sweeper, a stale
// lastPlaybackCheckIn makes the session look abandoned, and calling
// sw.tick() synthesizes OnPlaybackStopped without waiting on the real
// interval ticker.
func TestIdleSweeper_TickStopsStalePlayback(t *testing.T) {
	lib := sessionsfakes.NewFakeLibraryManager()
	userData := sessionsfakes.NewFakeUserDataManager()
	m := NewManager(ManagerConfig{
		AuthRepo:        sessionsfakes.NewFakeAuthenticationRepository(),
		LibraryManager:  lib,
		UserDataManager: userData,
	})
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", Name: "Movie", MediaType: "Video", SupportsPlayedStatus: true}
	lib.AddItem(item)

	session := mustLogActivity(t, m, "device-1")
	require.NoError(t, m.OnPlaybackStart(context.Background(), &PlaybackStartInfo{
		SessionId: session.Id,
		ItemId:    item.Id,
	}))
	require.NotNil(t, session.NowPlayingItem())

	// Simulate a client that stopped checking in well past the idle
	// threshold, without advancing the sweeper's real ticker.
	session.SetLastPlaybackCheckIn(fixedTime(0).Add(-m.idle.threshold - time.Minute))

	m.idle.tick()

	assert.Nil(t, session.NowPlayingItem())
	require.NotEmpty(t, userData.Saves)
	last := userData.Saves[len(userData.Saves)-1]
	assert.Equal(t, SaveReasonPlaybackFinished, last.Reason)
}

// TestIdleSweeper_TickIgnoresFreshPlayback confirms tick() leaves sessions
// whose last check-in is within the idle threshold untouched.
func TestIdleSweeper_TickIgnoresFreshPlayback(t *testing.T) {
	lib := sessionsfakes.NewFakeLibraryManager()
	m := NewManager(ManagerConfig{
		AuthRepo:       sessionsfakes.NewFakeAuthenticationRepository(),
		LibraryManager: lib,
	})
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", Name: "Movie", MediaType: "Video"}
	lib.AddItem(item)

	session := mustLogActivity(t, m, "device-1")
	require.NoError(t, m.OnPlaybackStart(context.Background(), &PlaybackStartInfo{
		SessionId: session.Id,
		ItemId:    item.Id,
	}))

	session.SetLastPlaybackCheckIn(time.Now().UTC())

	m.idle.tick()

	assert.NotNil(t, session.NowPlayingItem())
}
