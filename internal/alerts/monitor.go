package alerts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/foxxcyber/deal-finder/internal/models"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

// ErrInvalidObservation is returned for observations that cannot belong to any product.
var ErrInvalidObservation = errors.New("invalid price observation")

// Registry is the notification store the Monitor reads from and writes
// evaluation state back to.
type Registry interface {
	ActiveForProduct(ctx context.Context, productID string) ([]models.PriceNotification, error)
	SaveEvaluation(ctx context.Context, n models.PriceNotification) error
}

// Publisher hands fired events to whatever delivers them to users.
type Publisher interface {
	Publish(ctx context.Context, event models.AlertEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event models.AlertEvent) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event models.AlertEvent) error {
	return f(ctx, event)
}

// Monitor feeds price observations through Evaluate for every active
// notification on the observed product. Observations for the same product
// are serialized so each notification has a single writer.
type Monitor struct {
	registry  Registry
	publisher Publisher
	locks     keyedMutex
}

// NewMonitor creates a Monitor.
func NewMonitor(registry Registry, publisher Publisher) *Monitor {
	return &Monitor{
		registry:  registry,
		publisher: publisher,
		locks:     keyedMutex{locks: make(map[string]*refLock)},
	}
}

// Observe evaluates obs and returns the events that were delivered.
// Notifications that reject obs as stale are skipped; after the rest are
// processed the returned error wraps ErrStaleObservation.
//
// A fired event is published before the notification's new state is saved.
// When publishing fails the state is left as it was, so a later observation
// detects the same crossing again.
func (m *Monitor) Observe(ctx context.Context, obs models.PriceObservation) ([]models.AlertEvent, error) {
	if obs.ProductID == "" {
		return nil, fmt.Errorf("%w: product_id is required", ErrInvalidObservation)
	}
	if math.IsNaN(obs.Price) || math.IsInf(obs.Price, 0) || obs.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidObservation)
	}
	if obs.ObservedAt.IsZero() {
		return nil, fmt.Errorf("%w: observed_at is required", ErrInvalidObservation)
	}

	unlock := m.locks.lock(obs.ProductID)
	defer unlock()

	notifications, err := m.registry.ActiveForProduct(ctx, obs.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load notifications for %s: %w", obs.ProductID, err)
	}
	if len(notifications) == 0 {
		logx.Debug().Str("product_id", obs.ProductID).Msg("no active notifications for observation")
		return nil, nil
	}

	var events []models.AlertEvent
	var publishErrs []error
	stale := 0
	for _, n := range notifications {
		res, err := Evaluate(n, obs)
		if errors.Is(err, ErrStaleObservation) {
			stale++
			logx.Warn().Err(err).Str("notification_id", n.ID).Msg("skipping stale observation")
			continue
		}
		if err != nil {
			return events, err
		}

		if res.Fired {
			if err := m.publish(ctx, *res.Event); err != nil {
				publishErrs = append(publishErrs, fmt.Errorf("publish %s: %w", n.ID, err))
				continue
			}
			events = append(events, *res.Event)
		}
		if res.Changed {
			if err := m.registry.SaveEvaluation(ctx, res.Notification); err != nil {
				return events, fmt.Errorf("save evaluation for %s: %w", n.ID, err)
			}
		}
	}

	if len(publishErrs) > 0 {
		return events, errors.Join(publishErrs...)
	}
	if stale > 0 {
		return events, fmt.Errorf("%w: rejected by %d of %d notifications", ErrStaleObservation, stale, len(notifications))
	}
	return events, nil
}

func (m *Monitor) publish(ctx context.Context, ev models.AlertEvent) error {
	if err := m.publisher.Publish(ctx, ev); err != nil {
		logx.Error().Err(err).Str("notification_id", ev.NotificationID).Msg("failed to publish alert")
		return err
	}
	logx.Info().
		Str("notification_id", ev.NotificationID).
		Str("product_id", ev.ProductID).
		Float64("price", ev.Price).
		Str("direction", string(ev.Direction)).
		Float64("threshold", ev.Threshold).
		Msg("price alert fired")
	return nil
}

type refLock struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
