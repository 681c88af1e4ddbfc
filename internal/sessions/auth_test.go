package sessions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
	"github.com/mantonx/viewra/internal/sessions/sessionsfakes"
)

func newAuthTestManager(t *testing.T) (*Manager, *sessionsfakes.FakeUserManager, *sessionsfakes.FakeAuthenticationRepository) {
	t.Helper()
	users := sessionsfakes.NewFakeUserManager()
	authRepo := sessionsfakes.NewFakeAuthenticationRepository()
	m := NewManager(ManagerConfig{
		UserManager: users,
		AuthRepo:    authRepo,
	})
	return m, users, authRepo
}

func TestAuthenticateNewSession_WithoutPasswordEnforcementCreatesSession(t *testing.T) {
	m, users, _ := newAuthTestManager(t)
	defer m.Shutdown()

	user := &User{Id: "user-1", Name: "Alice"}
	users.AddUser(user)

	result, err := m.AuthenticateNewSession(context.Background(), AuthenticationRequest{
		UserId:     "user-1",
		AppName:    "Web",
		AppVersion: "1.0",
		DeviceId:   "device-1",
		DeviceName: "Chrome",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "user-1", result.User.Id)
	require.NotNil(t, result.Session)
	assert.Equal(t, "user-1", result.Session.UserId)
}

func TestAuthenticateNewSession_ReusesActiveTokenForSameUserAndDevice(t *testing.T) {
	m, users, _ := newAuthTestManager(t)
	defer m.Shutdown()

	user := &User{Id: "user-1", Name: "Alice"}
	users.AddUser(user)

	req := AuthenticationRequest{UserId: "user-1", AppName: "Web", AppVersion: "1.0", DeviceId: "device-1", DeviceName: "Chrome"}

	first, err := m.AuthenticateNewSession(context.Background(), req)
	require.NoError(t, err)

	second, err := m.AuthenticateNewSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.AccessToken, second.AccessToken)
}

func TestAuthenticateNewSession_EnforcedPasswordRejectsBadCredentials(t *testing.T) {
	m, users, _ := newAuthTestManager(t)
	defer m.Shutdown()

	users.AuthenticateFunc = func(ctx context.Context, username, password, remoteEndPoint string) (*User, error) {
		return nil, nil
	}

	_, err := m.AuthenticateNewSession(context.Background(), AuthenticationRequest{
		Username:        "alice",
		Password:        "wrong",
		AppName:         "Web",
		AppVersion:      "1.0",
		DeviceId:        "device-1",
		DeviceName:      "Chrome",
		EnforcePassword: true,
	})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeSecurityDenied, sessionerrors.GetType(err))
}

func TestAuthenticateNewSession_DeniesOutOfScheduleUser(t *testing.T) {
	m, users, _ := newAuthTestManager(t)
	defer m.Shutdown()

	user := &User{Id: "user-1", Name: "Alice"}
	users.AddUser(user)
	users.ParentalScheduleOK = map[string]bool{"user-1": false}

	_, err := m.AuthenticateNewSession(context.Background(), AuthenticationRequest{
		UserId: "user-1", AppName: "Web", AppVersion: "1.0", DeviceId: "device-1", DeviceName: "Chrome",
	})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeSecurityDenied, sessionerrors.GetType(err))
}

func TestLogout_DeactivatesTokenAndEndsSessionsOnDevice(t *testing.T) {
	m, users, authRepo := newAuthTestManager(t)
	defer m.Shutdown()

	user := &User{Id: "user-1", Name: "Alice"}
	users.AddUser(user)

	result, err := m.AuthenticateNewSession(context.Background(), AuthenticationRequest{
		UserId: "user-1", AppName: "Web", AppVersion: "1.0", DeviceId: "device-1", DeviceName: "Chrome",
	})
	require.NoError(t, err)
	require.NotNil(t, m.GetSessionById(result.Session.Id))

	require.NoError(t, m.Logout(context.Background(), result.AccessToken))

	assert.Nil(t, m.GetSessionById(result.Session.Id))

	active := true
	rows, _, err := authRepo.Get(context.Background(), AuthTokenQuery{AccessToken: result.AccessToken, IsActive: &active})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLogout_UnknownTokenIsNotFound(t *testing.T) {
	m, _, _ := newAuthTestManager(t)
	defer m.Shutdown()

	err := m.Logout(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeNotFound, sessionerrors.GetType(err))
}

func TestRevokeUserTokens_LogsOutEveryTokenExceptCurrent(t *testing.T) {
	m, users, _ := newAuthTestManager(t)
	defer m.Shutdown()

	user := &User{Id: "user-1", Name: "Alice"}
	users.AddUser(user)

	kept, err := m.AuthenticateNewSession(context.Background(), AuthenticationRequest{
		UserId: "user-1", AppName: "Web", AppVersion: "1.0", DeviceId: "device-keep", DeviceName: "Chrome",
	})
	require.NoError(t, err)

	revoked, err := m.AuthenticateNewSession(context.Background(), AuthenticationRequest{
		UserId: "user-1", AppName: "Web", AppVersion: "1.0", DeviceId: "device-revoke", DeviceName: "Firefox",
	})
	require.NoError(t, err)

	require.NoError(t, m.RevokeUserTokens(context.Background(), "user-1", kept.AccessToken))

	assert.NotNil(t, m.GetSessionById(kept.Session.Id))
	assert.Nil(t, m.GetSessionById(revoked.Session.Id))
}
