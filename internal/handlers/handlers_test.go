package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/foxxcyber/deal-finder/internal/alerts"
	"github.com/foxxcyber/deal-finder/internal/catalog"
	"github.com/foxxcyber/deal-finder/internal/config"
	"github.com/foxxcyber/deal-finder/internal/core"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/middleware"
	"github.com/foxxcyber/deal-finder/internal/models"
)

const testSecret = "handler-test-secret"

var day = time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store that also serves as the monitor's registry
type fakeStore struct {
	mu            sync.Mutex
	products      []models.Product
	notifications []models.PriceNotification
	observations  []models.PriceObservation
	nextID        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: []models.Product{
		{ID: "p-1", Name: "Cordless Drill", Category: "Home & Garden", Brand: "Bosch", Price: 89.99, InStock: true, Slug: "cordless-drill", CreatedAt: day},
		{ID: "p-2", Name: "Garden Hose", Category: "home-&-garden", Brand: "Flexi", Price: 25, Featured: true, InStock: true, Slug: "garden-hose", CreatedAt: day.AddDate(0, 0, 1)},
		{ID: "p-3", Name: "Air Fryer", Category: "Kitchen", Brand: "Ninja", Price: 120, Slug: "air-fryer", CreatedAt: day},
		{ID: "p-4", Name: "Blender", Category: "Kitchen", Brand: "Ninja", Price: 60, Featured: true, InStock: true, Slug: "blender", CreatedAt: day},
		{ID: "p-5", Name: "Bluetooth Speaker", Category: "Electronics", Brand: "JBL", Price: 25, InStock: true, Slug: "bluetooth-speaker", CreatedAt: day},
	}}
}

func (s *fakeStore) ListProducts(context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.products...), nil
}

func (s *fakeStore) find(match func(models.Product) bool) (int, error) {
	for i, p := range s.products {
		if match(p) {
			return i, nil
		}
	}
	return -1, database.ErrProductNotFound
}

func (s *fakeStore) GetProductByID(_ context.Context, id string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.find(func(p models.Product) bool { return p.ID == id })
	if err != nil {
		return models.Product{}, err
	}
	return s.products[i], nil
}

func (s *fakeStore) GetProductBySlug(_ context.Context, slug string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.find(func(p models.Product) bool { return p.Slug == slug })
	if err != nil {
		return models.Product{}, err
	}
	return s.products[i], nil
}

func (s *fakeStore) CreateProduct(_ context.Context, req models.CreateProductRequest) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := models.Product{
		ID:       "new-" + strconv.Itoa(s.nextID),
		Name:     req.Name,
		Category: req.Category,
		Brand:    req.Brand,
		Price:    req.Price,
		Tags:     []string{},
		Slug:     catalog.Slugify(req.Name),
	}
	s.products = append(s.products, p)
	return p, nil
}

func (s *fakeStore) UpdateProductPrice(_ context.Context, id string, price float64, observedAt time.Time) (models.PriceObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.find(func(p models.Product) bool { return p.ID == id })
	if err != nil {
		return models.PriceObservation{}, err
	}
	for _, o := range s.observations {
		if o.ProductID == id && observedAt.Before(o.ObservedAt) {
			return models.PriceObservation{}, database.ErrStalePrice
		}
	}
	s.products[i].Price = price
	obs := models.PriceObservation{ProductID: id, Price: price, ObservedAt: observedAt}
	s.observations = append(s.observations, obs)
	return obs, nil
}

func (s *fakeStore) ListCategories(ctx context.Context) ([]models.CategorySummary, error) {
	products, _ := s.ListProducts(ctx)
	return catalog.Facets(products).Categories, nil
}

func (s *fakeStore) RecordObservation(_ context.Context, obs models.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append(s.observations, obs)
	return nil
}

func (s *fakeStore) ListObservations(_ context.Context, productID string, limit int) ([]models.PriceObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PriceObservation{}
	for i := len(s.observations) - 1; i >= 0 && len(out) < limit; i-- {
		if s.observations[i].ProductID == productID {
			out = append(out, s.observations[i])
		}
	}
	return out, nil
}

func (s *fakeStore) ListNotificationsByUser(_ context.Context, userID string) ([]models.PriceNotificationWithProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PriceNotificationWithProduct{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, models.PriceNotificationWithProduct{PriceNotification: n})
		}
	}
	return out, nil
}

func (s *fakeStore) notification(id, userID string) (int, error) {
	for i, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			return i, nil
		}
	}
	return -1, database.ErrNotificationNotFound
}

func (s *fakeStore) GetNotification(_ context.Context, id, userID string) (models.PriceNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.notification(id, userID)
	if err != nil {
		return models.PriceNotification{}, err
	}
	return s.notifications[i], nil
}

func (s *fakeStore) CreateNotification(_ context.Context, userID string, req models.CreateNotificationRequest) (models.PriceNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.find(func(p models.Product) bool { return p.ID == req.ProductID }); err != nil {
		return models.PriceNotification{}, err
	}
	s.nextID++
	n := models.PriceNotification{
		ID:        "n-" + strconv.Itoa(s.nextID),
		UserID:    userID,
		ProductID: req.ProductID,
		Threshold: req.Threshold,
		Direction: req.Direction,
		IsActive:  true,
	}
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *fakeStore) SetNotificationActive(_ context.Context, id, userID string, active bool) (models.PriceNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.notification(id, userID)
	if err != nil {
		return models.PriceNotification{}, err
	}
	s.notifications[i].IsActive = active
	return s.notifications[i], nil
}

func (s *fakeStore) DeleteNotification(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.notification(id, userID)
	if err != nil {
		return err
	}
	s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
	return nil
}

func (s *fakeStore) ActiveForProduct(_ context.Context, productID string) ([]models.PriceNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PriceNotification
	for _, n := range s.notifications {
		if n.ProductID == productID && n.IsActive {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveEvaluation(_ context.Context, n models.PriceNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == n.ID {
			s.notifications[i].LastEvaluatedPrice = n.LastEvaluatedPrice
			s.notifications[i].LastObservedAt = n.LastObservedAt
		}
	}
	return nil
}

type published struct {
	mu     sync.Mutex
	events []models.AlertEvent
	err    error
}

func (p *published) Publish(_ context.Context, ev models.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *published) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type testEnv struct {
	app   *fiber.App
	store *fakeStore
	out   *published
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       testSecret,
		Environment:     core.Testing,
		DefaultPageSize: 12,
		MaxPageSize:     60,
	}
	store := newFakeStore()
	out := &published{}
	h := New(store, alerts.NewMonitor(store, out), cfg)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h.Register(app)
	return &testEnv{app: app, store: store, out: out}
}

func token(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	claims := middleware.JWTClaims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, raw)
	}
	return v
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := env.app.Test(req)
	if err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("health check failed: %v %v", resp, err)
	}
}

type fakeQueue struct {
	pending int64
	err     error
}

func (q fakeQueue) Pending(context.Context) (int64, error) { return q.pending, q.err }

func TestHealthReportsAlertBacklog(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{JWTSecret: testSecret, Environment: core.Testing, DefaultPageSize: 12, MaxPageSize: 60}
	store := newFakeStore()
	monitor := alerts.NewMonitor(store, &published{})

	check := func(q AlertQueue) (int, map[string]any) {
		app := fiber.New()
		New(store, monitor, cfg).WithAlertQueue(q).Register(app)
		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		if err != nil {
			t.Fatalf("health: %v", err)
		}
		defer resp.Body.Close()
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		return resp.StatusCode, body
	}

	status, body := check(fakeQueue{pending: 7})
	if status != fiber.StatusOK || body["pending_alerts"] != float64(7) {
		t.Fatalf("expected backlog of 7, got %d %v", status, body)
	}

	status, body = check(fakeQueue{err: errors.New("connection refused")})
	if status != fiber.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("expected degraded health, got %d %v", status, body)
	}
}
