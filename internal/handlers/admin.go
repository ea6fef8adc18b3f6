package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/deal-finder/internal/alerts"
	"github.com/foxxcyber/deal-finder/internal/catalog"
	errx "github.com/foxxcyber/deal-finder/internal/core/error"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/models"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

// observationResponse is returned by the endpoints that feed the monitor
type observationResponse struct {
	Observation models.PriceObservation `json:"observation"`
	Fired       []models.AlertEvent     `json:"fired"`
}

// CreateProduct adds a product to the catalog (admin only)
func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var req models.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := catalog.ValidateProduct(req); err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	product, err := h.store.CreateProduct(c.Context(), req)
	if err != nil {
		return internalError(c, err, "failed to create product")
	}

	logx.Info().Str("product_id", product.ID).Str("slug", product.Slug).Msg("product created")
	return Created(c, product)
}

// UpdateProductPrice changes a product's current price and runs the new price
// through the alert monitor (admin only)
func (h *Handler) UpdateProductPrice(c *fiber.Ctx) error {
	var req models.UpdatePriceRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !catalog.ValidPrice(req.Price) {
		return Error(c, fiber.StatusBadRequest, "price must be a non-negative number")
	}

	observedAt := h.now()
	if req.ObservedAt != nil {
		observedAt = req.ObservedAt.UTC()
	}

	obs, err := h.store.UpdateProductPrice(c.Context(), c.Params("id"), req.Price, observedAt)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrProductNotFound):
			return Error(c, fiber.StatusNotFound, "product not found")
		case errors.Is(err, database.ErrStalePrice):
			return Error(c, fiber.StatusConflict, err.Error())
		}
		return internalError(c, err, "failed to update price")
	}

	return h.observe(c, obs, false)
}

// RecordObservation feeds an externally sourced price reading to the alert
// monitor (admin only). The product's listed price is left alone.
func (h *Handler) RecordObservation(c *fiber.Ctx) error {
	var obs models.PriceObservation
	if err := c.BodyParser(&obs); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = h.now()
	}

	if _, err := h.store.GetProductByID(c.Context(), obs.ProductID); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return Error(c, fiber.StatusNotFound, "product not found")
		}
		return internalError(c, err, "failed to get product")
	}

	return h.observe(c, obs, true)
}

func (h *Handler) observe(c *fiber.Ctx, obs models.PriceObservation, record bool) error {
	fired, err := h.monitor.Observe(c.Context(), obs)
	switch {
	case errors.Is(err, alerts.ErrInvalidObservation):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, alerts.ErrStaleObservation):
		return c.Status(fiber.StatusConflict).JSON(APIResponse{
			Success: false,
			Error:   err.Error(),
			Data:    observationResponse{Observation: obs, Fired: nonNil(fired)},
		})
	case err != nil:
		status, message := errx.Status(err, fiber.StatusInternalServerError)
		logx.Error().Err(err).Str("product_id", obs.ProductID).Msg("failed to evaluate notifications")
		return c.Status(status).JSON(APIResponse{
			Success: false,
			Error:   message,
			Data:    observationResponse{Observation: obs, Fired: nonNil(fired)},
		})
	}

	if record {
		if err := h.store.RecordObservation(c.Context(), obs); err != nil {
			return internalError(c, err, "failed to record observation")
		}
	}

	return Success(c, observationResponse{Observation: obs, Fired: nonNil(fired)})
}

func nonNil(events []models.AlertEvent) []models.AlertEvent {
	if events == nil {
		return []models.AlertEvent{}
	}
	return events
}
