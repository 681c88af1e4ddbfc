package sessions

import (
	"context"
	"sync"
)

// fanOut snapshots active sessions (isActive ∧ SessionController != nil),
// dispatches send concurrently across their controllers, and joins before
// returning. Individual failures are logged and never abort siblings, per
// spec §4.I / §5.
func (m *Manager) fanOut(ctx context.Context, op string, send func(ctx context.Context, ctrl SessionController) error) {
	candidates := m.registry.snapshot()

	var wg sync.WaitGroup
	for _, s := range candidates {
		if !s.IsActive() {
			continue
		}
		ctrl := s.Controller()

		wg.Add(1)
		go func(s *Session, ctrl SessionController) {
			defer wg.Done()
			if err := send(ctx, ctrl); err != nil {
				m.logError(op+": fan-out to session "+s.Id, err)
			}
		}(s, ctrl)
	}
	wg.Wait()
}

// BroadcastServerShutdown notifies every active controller the server is
// shutting down.
func (m *Manager) BroadcastServerShutdown(ctx context.Context) {
	m.fanOut(ctx, "ServerShutdown", func(ctx context.Context, ctrl SessionController) error {
		return ctrl.SendServerShutdownNotification(ctx)
	})
}

// BroadcastServerRestart notifies every active controller the server is
// restarting.
func (m *Manager) BroadcastServerRestart(ctx context.Context) {
	m.fanOut(ctx, "ServerRestart", func(ctx context.Context, ctrl SessionController) error {
		return ctrl.SendServerRestartNotification(ctx)
	})
}

// BroadcastRestartRequired notifies every active controller that a restart
// is required (e.g. after a plugin/config change).
func (m *Manager) BroadcastRestartRequired(ctx context.Context) {
	m.fanOut(ctx, "RestartRequired", func(ctx context.Context, ctrl SessionController) error {
		return ctrl.SendRestartRequiredNotification(ctx)
	})
}

// logError is the Manager's non-fatal failure logger: transient
// collaborator/controller failures are logged at error and swallowed so the
// primary state transition still completes (spec §7).
func (m *Manager) logError(op string, err error) {
	m.logger.Error(op+" failed", "error", err)
}
