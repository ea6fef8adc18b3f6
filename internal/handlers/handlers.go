package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/deal-finder/internal/config"
	errx "github.com/foxxcyber/deal-finder/internal/core/error"
	"github.com/foxxcyber/deal-finder/internal/models"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

// ProductStore is the catalog side of the database
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (models.Product, error)
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.Product, error)
	UpdateProductPrice(ctx context.Context, id string, price float64, observedAt time.Time) (models.PriceObservation, error)
	ListCategories(ctx context.Context) ([]models.CategorySummary, error)
	RecordObservation(ctx context.Context, obs models.PriceObservation) error
	ListObservations(ctx context.Context, productID string, limit int) ([]models.PriceObservation, error)
}

// NotificationStore holds users' price watches
type NotificationStore interface {
	ListNotificationsByUser(ctx context.Context, userID string) ([]models.PriceNotificationWithProduct, error)
	GetNotification(ctx context.Context, id, userID string) (models.PriceNotification, error)
	CreateNotification(ctx context.Context, userID string, req models.CreateNotificationRequest) (models.PriceNotification, error)
	SetNotificationActive(ctx context.Context, id, userID string, active bool) (models.PriceNotification, error)
	DeleteNotification(ctx context.Context, id, userID string) error
}

// Store is everything the handlers read and write
type Store interface {
	ProductStore
	NotificationStore
}

// PriceMonitor evaluates incoming prices against active watches
type PriceMonitor interface {
	Observe(ctx context.Context, obs models.PriceObservation) ([]models.AlertEvent, error)
}

// AlertQueue reports how many fired alerts are waiting for delivery
type AlertQueue interface {
	Pending(ctx context.Context) (int64, error)
}

// Handler holds all handler dependencies
type Handler struct {
	store   Store
	monitor PriceMonitor
	queue   AlertQueue
	cfg     *config.Config
	now     func() time.Time
}

// New creates a new Handler instance
func New(store Store, monitor PriceMonitor, cfg *config.Config) *Handler {
	return &Handler{
		store:   store,
		monitor: monitor,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithAlertQueue makes Health report the alert backlog
func (h *Handler) WithAlertQueue(q AlertQueue) *Handler {
	h.queue = q
	return h
}

// Health reports liveness and, when an alert queue is attached, its backlog
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":      "ok",
		"environment": h.cfg.Environment.String(),
	}
	if h.queue != nil {
		pending, err := h.queue.Pending(c.Context())
		if err != nil {
			logx.Warn().Err(err).Msg("alert queue unavailable")
			resp["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
		resp["pending_alerts"] = pending
	}
	return c.JSON(resp)
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	var appErr *errx.AppError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.As(err, &appErr):
		code = appErr.Status
		message = appErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, meta Meta) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta:    &meta,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// internalError logs err and answers with the status it carries, 500 by default
func internalError(c *fiber.Ctx, err error, message string) error {
	status, _ := errx.Status(err, fiber.StatusInternalServerError)
	logx.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg(message)
	return Error(c, status, message)
}
