package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/viewra/internal/config"
)

// idleSweeper is the single process-wide timer that terminates stalled
// playback, grounded on the teacher's periodic-scan pattern in
// core/session_manager.go's cleanup goroutine, generalized to spec §4.F:
// armed by playback start/progress, disarmed once nothing is playing.
type idleSweeper struct {
	manager *Manager
	logger  hclog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	interval  time.Duration
	threshold time.Duration
}

func newIdleSweeper(m *Manager, logger hclog.Logger) *idleSweeper {
	cfg := config.Get().Sessions
	return &idleSweeper{
		manager:   m,
		logger:    logger,
		interval:  cfg.SweepInterval,
		threshold: cfg.IdleTimeout,
	}
}

// arm starts the sweep loop if it is not already running. Safe to call
// repeatedly; only the first call after a stop takes effect.
func (sw *idleSweeper) arm() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return
	}
	sw.running = true
	sw.stopCh = make(chan struct{})
	sw.wg.Add(1)

	go sw.loop(sw.stopCh)
}

// disarm stops the sweep loop. Called by the loop itself once a tick finds
// nothing playing.
func (sw *idleSweeper) disarm() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = false
	stopCh := sw.stopCh
	sw.mu.Unlock()

	close(stopCh)
}

// stop disarms the sweeper and waits for its goroutine to exit, for use at
// manager shutdown.
func (sw *idleSweeper) stop() {
	sw.disarm()
	sw.wg.Wait()
}

func (sw *idleSweeper) loop(stopCh chan struct{}) {
	defer sw.wg.Done()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			sw.tick()
		}
	}
}

func (sw *idleSweeper) tick() {
	ctx := context.Background()
	now := time.Now().UTC()

	playing := 0
	for _, s := range sw.manager.Sessions() {
		if s.NowPlayingItem() == nil {
			continue
		}
		playing++

		if now.Sub(s.LastPlaybackCheckIn()) <= sw.threshold {
			continue
		}

		info := synthesizeStopInfo(s)
		if err := sw.manager.OnPlaybackStopped(ctx, info); err != nil {
			sw.logger.Error("idle sweep stop session failed", "session_id", s.Id, "error", err)
		}
	}

	// Re-check: if nothing is playing after this pass, disarm.
	stillPlaying := false
	for _, s := range sw.manager.Sessions() {
		if s.NowPlayingItem() != nil {
			stillPlaying = true
			break
		}
	}
	if !stillPlaying {
		sw.disarm()
	}
}

// synthesizeStopInfo builds the PlaybackStopInfo the idle sweeper feeds to
// OnPlaybackStopped from a stalled session's current state (spec §4.F: no
// positionTicks is supplied, so the stop is treated as played-to-completion).
func synthesizeStopInfo(s *Session) *PlaybackStopInfo {
	item := s.NowPlayingItem()
	ps := s.PlayState()
	info := &PlaybackStopInfo{
		SessionId:     s.Id,
		MediaSourceId: ps.MediaSourceId,
	}
	if item != nil {
		info.ItemId = item.Id
	}
	return info
}
