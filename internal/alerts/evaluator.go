// Package alerts decides when a price watch should notify its owner.
//
// A notification fires when the observed price moves from outside its
// threshold zone to inside it. Staying inside the zone never fires again;
// leaving and re-entering it does.
package alerts

import (
	"errors"
	"fmt"
	"time"

	"github.com/foxxcyber/deal-finder/internal/models"
)

var (
	// ErrStaleObservation is returned for an observation older than the last
	// one processed for the notification.
	ErrStaleObservation = errors.New("stale price observation")
	// ErrProductMismatch is returned when an observation is evaluated against
	// a notification watching a different product.
	ErrProductMismatch = errors.New("observation is for a different product")
	// ErrInvalidNotification is returned by Validate.
	ErrInvalidNotification = errors.New("invalid price notification")
)

// Result is the outcome of evaluating one observation.
type Result struct {
	Fired        bool
	Event        *models.AlertEvent
	Notification models.PriceNotification
	// Changed is false when the notification state was left untouched
	// (inactive or duplicate observation).
	Changed bool
}

// Satisfied reports whether price is inside the zone described by direction
// and threshold. Both boundaries count as inside.
func Satisfied(direction models.Direction, price, threshold float64) bool {
	switch direction {
	case models.DirectionBelow:
		return price <= threshold
	case models.DirectionAbove:
		return price >= threshold
	default:
		return false
	}
}

// Evaluate applies obs to n and returns the updated notification. It never
// modifies n itself; callers persist Result.Notification when Changed is set.
func Evaluate(n models.PriceNotification, obs models.PriceObservation) (Result, error) {
	if obs.ProductID != n.ProductID {
		return Result{Notification: n}, fmt.Errorf("%w: notification %s watches %s, got %s",
			ErrProductMismatch, n.ID, n.ProductID, obs.ProductID)
	}
	if !n.IsActive {
		return Result{Notification: n}, nil
	}

	if n.LastObservedAt != nil {
		if obs.ObservedAt.Before(*n.LastObservedAt) {
			return Result{Notification: n}, fmt.Errorf("%w: notification %s last saw %s, got %s",
				ErrStaleObservation, n.ID, n.LastObservedAt.Format(time.RFC3339Nano), obs.ObservedAt.Format(time.RFC3339Nano))
		}
		if obs.ObservedAt.Equal(*n.LastObservedAt) && n.LastEvaluatedPrice != nil && *n.LastEvaluatedPrice == obs.Price {
			return Result{Notification: n}, nil
		}
	}

	// a fresh alert has no previous side of the threshold, so it only records
	fire := false
	if n.LastEvaluatedPrice != nil {
		wasSatisfied := Satisfied(n.Direction, *n.LastEvaluatedPrice, n.Threshold)
		fire = Satisfied(n.Direction, obs.Price, n.Threshold) && !wasSatisfied
	}

	updated := n
	price := obs.Price
	observedAt := obs.ObservedAt
	updated.LastEvaluatedPrice = &price
	updated.LastObservedAt = &observedAt

	res := Result{Notification: updated, Changed: true}
	if fire {
		res.Fired = true
		res.Event = &models.AlertEvent{
			NotificationID: n.ID,
			UserID:         n.UserID,
			ProductID:      n.ProductID,
			Price:          obs.Price,
			Direction:      n.Direction,
			Threshold:      n.Threshold,
			FiredAt:        obs.ObservedAt,
		}
	}
	return res, nil
}

// Validate checks a create request before it reaches storage.
func Validate(req models.CreateNotificationRequest) error {
	if req.ProductID == "" {
		return fmt.Errorf("%w: product_id is required", ErrInvalidNotification)
	}
	if !(req.Threshold > 0) {
		return fmt.Errorf("%w: threshold must be greater than 0", ErrInvalidNotification)
	}
	if !req.Direction.Valid() {
		return fmt.Errorf("%w: direction must be %q or %q", ErrInvalidNotification, models.DirectionAbove, models.DirectionBelow)
	}
	return nil
}
