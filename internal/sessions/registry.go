package sessions

import (
	"sort"
	"strings"
	"sync"
)

// GetSessionKey returns the case-insensitive registry key for (client,
// deviceId), per spec §4.A.
func GetSessionKey(client, deviceId string) string {
	return strings.ToLower(client) + strings.ToLower(deviceId)
}

// registry is the concurrent mapping from (client, deviceId) key to Session,
// grounded on SessionManager.sessions map[string]*PlaybackSession + sync.RWMutex
// in the teacher's core/session_manager.go, generalized to the spec's keying
// and snapshot/filter operations.
type registry struct {
	mu    sync.RWMutex
	byKey map[string]*Session
	byId  map[string]*Session
}

func newRegistry() *registry {
	return &registry{
		byKey: make(map[string]*Session),
		byId:  make(map[string]*Session),
	}
}

// get returns the session for key, or nil.
func (r *registry) get(key string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKey[key]
}

// getById returns the session for id, or nil.
func (r *registry) getById(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byId[id]
}

// insertIfAbsent inserts session under key iff no session is already
// registered there, returning the resident session either way (spec
// invariant 1: at most one session per (client, deviceId)).
func (r *registry) insertIfAbsent(key string, session *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[key]; ok {
		return existing
	}
	r.byKey[key] = session
	r.byId[session.Id] = session
	return session
}

// remove deletes the session identified by id from both indexes.
func (r *registry) remove(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byId[id]
	if !ok {
		return nil
	}
	delete(r.byId, id)
	delete(r.byKey, GetSessionKey(session.Client, session.DeviceId))
	return session
}

// snapshot returns all sessions ordered by lastActivityDate descending.
// Callers must not hold a structural lock while performing I/O over the
// result — this copies the slice under the lock and releases it
// immediately (spec §4.A).
func (r *registry) snapshot() []*Session {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.byId))
	for _, s := range r.byId {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivityDate().After(sessions[j].LastActivityDate())
	})
	return sessions
}

// snapshotByDeviceId returns every session for deviceId (case-insensitive).
func (r *registry) snapshotByDeviceId(deviceId string) []*Session {
	deviceId = strings.ToLower(deviceId)
	var out []*Session
	for _, s := range r.snapshot() {
		if strings.ToLower(s.DeviceId) == deviceId {
			out = append(out, s)
		}
	}
	return out
}

// snapshotByDeviceAndClient returns every session for (deviceId, client).
func (r *registry) snapshotByDeviceAndClient(deviceId, client string) []*Session {
	deviceId = strings.ToLower(deviceId)
	client = strings.ToLower(client)
	var out []*Session
	for _, s := range r.snapshot() {
		if strings.ToLower(s.DeviceId) == deviceId && strings.ToLower(s.Client) == client {
			out = append(out, s)
		}
	}
	return out
}

// count returns the number of registered sessions.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byId)
}
