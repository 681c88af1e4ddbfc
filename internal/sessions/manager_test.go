package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
	"github.com/mantonx/viewra/internal/sessions/sessionsfakes"
)

func newTestManager() *Manager {
	return NewManager(ManagerConfig{
		AuthRepo: sessionsfakes.NewFakeAuthenticationRepository(),
	})
}

func TestLogSessionActivity_CreatesOneSessionPerAppDevicePair(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	first, err := m.LogSessionActivity(context.Background(), "Jellyfin Web", "1.0", "device-1", "Chrome", "127.0.0.1", nil)
	require.NoError(t, err)

	second, err := m.LogSessionActivity(context.Background(), "Jellyfin Web", "1.0", "device-1", "Chrome", "127.0.0.1", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Len(t, m.Sessions(), 1)
}

func TestLogSessionActivity_ConcurrentCallersConverge(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	const goroutines = 16
	ids := make([]string, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := m.LogSessionActivity(context.Background(), "Web", "1.0", "shared-device", "Chrome", "127.0.0.1", nil)
			require.NoError(t, err)
			ids[i] = session.Id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, m.Sessions(), 1)
}

func TestLogSessionActivity_RejectsMissingRequiredFields(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	_, err := m.LogSessionActivity(context.Background(), "", "1.0", "device-1", "Chrome", "127.0.0.1", nil)
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeInvalidArgument, sessionerrors.GetType(err))
}

func TestLogSessionActivity_AssociatesUser(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	user := &User{Id: "user-1", Name: "Alice"}
	session, err := m.LogSessionActivity(context.Background(), "Web", "1.0", "device-1", "Chrome", "127.0.0.1", user)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserId)
	assert.Equal(t, "Alice", session.UserName)
}

func TestReportSessionEnded_RemovesSessionAndDisposes(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	session, err := m.LogSessionActivity(context.Background(), "Web", "1.0", "device-1", "Chrome", "127.0.0.1", nil)
	require.NoError(t, err)

	require.NoError(t, m.ReportSessionEnded(context.Background(), session.Id))
	assert.Nil(t, m.GetSessionById(session.Id))
}

func TestReportSessionEnded_UnknownSessionIdReturnsNotFound(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	err := m.ReportSessionEnded(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeNotFound, sessionerrors.GetType(err))
}

func TestManager_DisposedRejectsFurtherCalls(t *testing.T) {
	m := newTestManager()
	m.Shutdown()

	_, err := m.LogSessionActivity(context.Background(), "Web", "1.0", "device-1", "Chrome", "127.0.0.1", nil)
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeDisposed, sessionerrors.GetType(err))
}

func TestSessions_OrderedMostRecentFirst(t *testing.T) {
	m := newTestManager()
	defer m.Shutdown()

	a, err := m.LogSessionActivity(context.Background(), "Web", "1.0", "device-a", "Chrome", "127.0.0.1", nil)
	require.NoError(t, err)
	b, err := m.LogSessionActivity(context.Background(), "Web", "1.0", "device-b", "Chrome", "127.0.0.1", nil)
	require.NoError(t, err)

	a.SetLastActivityDate(time.Now().UTC().Add(time.Hour))
	b.SetLastActivityDate(time.Now().UTC().Add(2 * time.Hour))

	snapshot := m.Sessions()
	require.Len(t, snapshot, 2)
	assert.Equal(t, b.Id, snapshot[0].Id)
	assert.Equal(t, a.Id, snapshot[1].Id)
}
