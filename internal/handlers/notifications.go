package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/deal-finder/internal/alerts"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/middleware"
	"github.com/foxxcyber/deal-finder/internal/models"
)

// ListNotifications returns the caller's price watches
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	notifications, err := h.store.ListNotificationsByUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return internalError(c, err, "failed to list notifications")
	}
	return Success(c, notifications)
}

// GetNotification returns one of the caller's price watches
func (h *Handler) GetNotification(c *fiber.Ctx) error {
	n, err := h.store.GetNotification(c.Context(), c.Params("id"), middleware.GetUserID(c))
	if err != nil {
		return notificationError(c, err, "failed to get notification")
	}
	return Success(c, n)
}

// CreateNotification registers a price watch for the caller
func (h *Handler) CreateNotification(c *fiber.Ctx) error {
	var req models.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := alerts.Validate(req); err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	n, err := h.store.CreateNotification(c.Context(), middleware.GetUserID(c), req)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return Error(c, fiber.StatusNotFound, "product not found")
		}
		return internalError(c, err, "failed to create notification")
	}
	return Created(c, n)
}

// SetNotificationActive pauses or resumes one of the caller's price watches
func (h *Handler) SetNotificationActive(c *fiber.Ctx) error {
	var req models.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	n, err := h.store.SetNotificationActive(c.Context(), c.Params("id"), middleware.GetUserID(c), req.IsActive)
	if err != nil {
		return notificationError(c, err, "failed to update notification")
	}
	return Success(c, n)
}

// DeleteNotification removes one of the caller's price watches
func (h *Handler) DeleteNotification(c *fiber.Ctx) error {
	if err := h.store.DeleteNotification(c.Context(), c.Params("id"), middleware.GetUserID(c)); err != nil {
		return notificationError(c, err, "failed to delete notification")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "notification deleted successfully",
	})
}

func notificationError(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, database.ErrNotificationNotFound) {
		return Error(c, fiber.StatusNotFound, "notification not found")
	}
	return internalError(c, err, message)
}
