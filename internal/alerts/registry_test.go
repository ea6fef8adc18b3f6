package alerts

import (
	"context"
	"sync"

	"github.com/foxxcyber/deal-finder/internal/models"
)

// memoryRegistry is a Registry that keeps notifications in insertion order.
type memoryRegistry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]models.PriceNotification
}

// newMemoryRegistry creates an empty registry.
func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{byID: make(map[string]models.PriceNotification)}
}

// Put inserts or replaces a notification.
func (r *memoryRegistry) Put(n models.PriceNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID]; !ok {
		r.order = append(r.order, n.ID)
	}
	r.byID[n.ID] = n
}

// Get returns a notification by id.
func (r *memoryRegistry) Get(id string) (models.PriceNotification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	return n, ok
}

// ActiveForProduct implements Registry.
func (r *memoryRegistry) ActiveForProduct(_ context.Context, productID string) ([]models.PriceNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.PriceNotification
	for _, id := range r.order {
		if n := r.byID[id]; n.ProductID == productID && n.IsActive {
			out = append(out, n)
		}
	}
	return out, nil
}

// SaveEvaluation implements Registry. Only the evaluation fields are written
// so a concurrent toggle of IsActive is not overwritten.
func (r *memoryRegistry) SaveEvaluation(_ context.Context, n models.PriceNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[n.ID]
	if !ok {
		return nil
	}
	cur.LastEvaluatedPrice = n.LastEvaluatedPrice
	cur.LastObservedAt = n.LastObservedAt
	r.byID[n.ID] = cur
	return nil
}
