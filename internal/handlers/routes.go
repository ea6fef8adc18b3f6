package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/deal-finder/internal/middleware"
)

// Register mounts every API route on app
func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", h.Health)

	api := app.Group("/api")

	// Public catalog routes
	products := api.Group("/products")
	products.Get("/", h.ListProducts)
	products.Get("/facets", h.ProductFacets)
	products.Get("/:slug", middleware.AuthOptional(h.cfg), h.GetProduct)
	products.Get("/:slug/history", h.PriceHistory)
	api.Get("/categories", h.ListCategories)

	// Price watches (authenticated)
	notifications := api.Group("/notifications", middleware.AuthRequired(h.cfg))
	notifications.Get("/", h.ListNotifications)
	notifications.Post("/", h.CreateNotification)
	notifications.Get("/:id", h.GetNotification)
	notifications.Put("/:id/active", h.SetNotificationActive)
	notifications.Delete("/:id", h.DeleteNotification)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthRequired(h.cfg), middleware.AdminRequired())
	admin.Post("/products", h.CreateProduct)
	admin.Put("/products/:id/price", h.UpdateProductPrice)
	admin.Post("/observations", h.RecordObservation)
}
