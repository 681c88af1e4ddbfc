package events

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/mantonx/viewra/internal/logger"
)

// memoryBus is an in-memory EventBus. Unlike the teacher's persisted,
// metrics-backed implementation it keeps no event history and records no
// metrics; session events are transient notifications, not an audit log.
type memoryBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	running       bool
	wg            sync.WaitGroup
	stats         EventStats
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus() EventBus {
	return &memoryBus{
		subscriptions: make(map[string]*Subscription),
		stats:         EventStats{EventsByType: make(map[string]int64)},
	}
}

func (b *memoryBus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("event bus is already running")
	}
	b.running = true
	logger.Info("event bus started")
	return nil
}

func (b *memoryBus) Stop() error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.mu.Unlock()

	b.wg.Wait()
	logger.Info("event bus stopped")
	return nil
}

func (b *memoryBus) Publish(event Event) error {
	matching, err := b.prepare(event)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, sub := range matching {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			b.notify(sub, event)
		}(sub)
	}
	wg.Wait()
	return nil
}

func (b *memoryBus) PublishAsync(event Event) error {
	matching, err := b.prepare(event)
	if err != nil {
		return err
	}

	for _, sub := range matching {
		b.wg.Add(1)
		go func(sub *Subscription) {
			defer b.wg.Done()
			b.notify(sub, event)
		}(sub)
	}
	return nil
}

// prepare stamps the event, updates stats, and returns the subscriptions
// that match it.
func (b *memoryBus) prepare(event Event) ([]*Subscription, error) {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil, fmt.Errorf("event bus is not running")
	}
	if event.ID == "" {
		event.ID = generateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		b.mu.Unlock()
		return nil, fmt.Errorf("event type is required")
	}

	b.stats.TotalEvents++
	b.stats.EventsByType[string(event.Type)]++

	matching := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.Filter.Matches(event) {
			matching = append(matching, sub)
		}
	}
	b.mu.Unlock()

	return matching, nil
}

func (b *memoryBus) notify(sub *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in event handler", []logger.Field{
				logger.String("subscription_id", sub.ID),
				logger.String("event_type", string(event.Type)),
				{Key: "recover", Value: r},
			})
		}
	}()

	if err := sub.Handler(event); err != nil {
		logger.Error("event handler error", []logger.Field{
			logger.String("subscription_id", sub.ID),
			logger.Err("error", err),
		})
		return
	}

	b.mu.Lock()
	sub.TriggerCount++
	now := time.Now()
	sub.LastTriggered = &now
	b.mu.Unlock()
}

func (b *memoryBus) Subscribe(filter EventFilter, handler EventHandler) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ID:      generateSubscriptionID(),
		Filter:  filter,
		Handler: handler,
		Created: time.Now(),
	}
	b.subscriptions[sub.ID] = sub
	return sub, nil
}

func (b *memoryBus) Unsubscribe(subscriptionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscriptions[subscriptionID]; !ok {
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(b.subscriptions, subscriptionID)
	return nil
}

func (b *memoryBus) GetSubscriptions() []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	return subs
}

func (b *memoryBus) GetStats() EventStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := b.stats
	stats.ActiveSubscriptions = len(b.subscriptions)
	return stats
}

func (b *memoryBus) Health() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running {
		return fmt.Errorf("event bus is not running")
	}
	return nil
}

func generateEventID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(buf))
}

func generateSubscriptionID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return fmt.Sprintf("sub-%s", hex.EncodeToString(buf))
}
