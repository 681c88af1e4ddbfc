package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mantonx/viewra/internal/events"
	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
)

// AuthenticationRequest is the payload of AuthenticateNewSession.
type AuthenticationRequest struct {
	UserId          string
	Username        string
	Password        string
	AppName         string
	AppVersion      string
	DeviceId        string
	DeviceName      string
	RemoteEndPoint  string
	EnforcePassword bool
}

// AuthenticationResult is the return value of AuthenticateNewSession.
type AuthenticationResult struct {
	User        *User
	Session     *Session
	AccessToken string
	ServerId    string
}

// AuthenticateNewSession implements spec §4.H. CreateNewSession is the same
// algorithm with EnforcePassword left false.
func (m *Manager) AuthenticateNewSession(ctx context.Context, req AuthenticationRequest) (*AuthenticationResult, error) {
	const op = "AuthenticateNewSession"
	if err := m.checkDisposed(op); err != nil {
		return nil, err
	}

	user, err := m.resolveAuthUser(ctx, req)
	if err != nil {
		if !req.EnforcePassword {
			return nil, err
		}
		// With password enforcement an unresolved user is left to the
		// credential check below, which rejects it as SecurityDenied.
		user = nil
	}

	if user != nil {
		if m.userManager != nil {
			if within, err := m.userManager.IsWithinParentalSchedule(ctx, user.Id); err == nil && !within {
				return nil, sessionerrors.SecurityDeniedError(op, fmt.Errorf("user is not permitted to sign in at this time"))
			}
			if canAccess, err := m.userManager.CanAccessDevice(ctx, user.Id, req.DeviceId); err == nil && !canAccess {
				return nil, sessionerrors.SecurityDeniedError(op, fmt.Errorf("device is not permitted for this user"))
			}
		}
	}

	if req.EnforcePassword {
		if m.userManager == nil {
			return nil, sessionerrors.SecurityDeniedError(op, fmt.Errorf("authentication is not configured"))
		}
		authenticated, err := m.userManager.AuthenticateUser(ctx, req.Username, req.Password, req.RemoteEndPoint)
		if err != nil || authenticated == nil {
			m.publishEvent(events.NewAuthenticationEvent(events.EventAuthenticationFailed, events.AuthenticationData{
				DeviceID: req.DeviceId,
				Reason:   "invalid credentials",
			}))
			return nil, sessionerrors.SecurityDeniedError(op, fmt.Errorf("invalid username or password"))
		}
		user = authenticated
	}

	userId := ""
	if user != nil {
		userId = user.Id
	}
	accessToken, err := m.mintOrReuseToken(ctx, userId, req.DeviceId)
	if err != nil {
		return nil, sessionerrors.TransientError(op, err)
	}

	m.publishEvent(events.NewAuthenticationEvent(events.EventAuthenticationOK, events.AuthenticationData{
		UserID:   userId,
		DeviceID: req.DeviceId,
	}))

	session, err := m.LogSessionActivity(ctx, req.AppName, req.AppVersion, req.DeviceId, req.DeviceName, req.RemoteEndPoint, user)
	if err != nil {
		return nil, err
	}

	return &AuthenticationResult{
		User:        user,
		Session:     session,
		AccessToken: accessToken,
		ServerId:    m.serverId,
	}, nil
}

func (m *Manager) resolveAuthUser(ctx context.Context, req AuthenticationRequest) (*User, error) {
	if m.userManager == nil {
		return nil, nil
	}
	if req.UserId != "" {
		return m.userManager.GetUserById(ctx, req.UserId)
	}
	if req.Username != "" {
		return m.userManager.GetUserByName(ctx, req.Username)
	}
	return nil, nil
}

// mintOrReuseToken implements the token-reuse rule of spec §4.H.
func (m *Manager) mintOrReuseToken(ctx context.Context, userId, deviceId string) (string, error) {
	if m.authRepo == nil {
		return "", fmt.Errorf("no authentication repository configured")
	}

	active := true
	existing, _, err := m.authRepo.Get(ctx, AuthTokenQuery{
		DeviceId: deviceId,
		UserId:   userId,
		IsActive: &active,
		Limit:    1,
	})
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return existing[0].AccessToken, nil
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	now := time.Now().UTC()
	info := &AuthTokenInfo{
		AccessToken:      token,
		DeviceId:         deviceId,
		UserId:           userId,
		IsActive:         true,
		DateCreated:      now,
		DateLastActivity: now,
	}
	if err := m.authRepo.Create(ctx, info); err != nil {
		return "", err
	}
	return token, nil
}

// Logout deactivates accessToken and ends every session on its device.
func (m *Manager) Logout(ctx context.Context, accessToken string) error {
	const op = "Logout"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	if m.authRepo == nil {
		return sessionerrors.TransientError(op, fmt.Errorf("no authentication repository configured"))
	}

	active := true
	rows, _, err := m.authRepo.Get(ctx, AuthTokenQuery{AccessToken: accessToken, IsActive: &active, Limit: 1})
	if err != nil {
		return sessionerrors.TransientError(op, err)
	}
	if len(rows) == 0 {
		return sessionerrors.NotFoundError(op, fmt.Errorf("token not found"))
	}
	token := rows[0]

	token.IsActive = false
	if err := m.authRepo.Update(ctx, token); err != nil {
		m.logError("deactivate token", err)
	}

	for _, session := range m.registry.snapshotByDeviceId(token.DeviceId) {
		if err := m.ReportSessionEnded(ctx, session.Id); err != nil {
			m.logError("end session on logout", err)
		}
	}
	return nil
}

// RevokeUserTokens logs out every active token for userId except
// currentAccessToken.
func (m *Manager) RevokeUserTokens(ctx context.Context, userId, currentAccessToken string) error {
	const op = "RevokeUserTokens"
	if err := m.checkDisposed(op); err != nil {
		return err
	}
	if m.authRepo == nil {
		return sessionerrors.TransientError(op, fmt.Errorf("no authentication repository configured"))
	}

	active := true
	rows, _, err := m.authRepo.Get(ctx, AuthTokenQuery{UserId: userId, IsActive: &active})
	if err != nil {
		return sessionerrors.TransientError(op, err)
	}

	for _, token := range rows {
		if token.AccessToken == currentAccessToken {
			continue
		}
		if err := m.Logout(ctx, token.AccessToken); err != nil {
			m.logError("revoke token", err)
		}
	}
	return nil
}
