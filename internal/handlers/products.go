package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/deal-finder/internal/catalog"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/middleware"
	"github.com/foxxcyber/deal-finder/internal/models"
)

// productDetail is a product page. Watches lists the caller's own price
// watches on the product.
type productDetail struct {
	models.Product
	Discount float64                    `json:"discount"`
	Watches  []models.PriceNotification `json:"watches,omitempty"`
}

// ListProducts runs a catalog query built from the request's query string
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	state, err := h.queryState(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	products, err := h.store.ListProducts(c.Context())
	if err != nil {
		return internalError(c, err, "failed to list products")
	}

	res, err := catalog.Query(products, state)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidQueryState) {
			return Error(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "failed to query products")
	}

	return SuccessWithMeta(c, res.Items, Meta{
		Total:      res.TotalMatched,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

// queryState maps query parameters onto a QueryState. Values that cannot be
// parsed are rejected rather than defaulted.
func (h *Handler) queryState(c *fiber.Ctx) (models.QueryState, error) {
	state := models.NewQueryState()
	state.PageSize = h.cfg.DefaultPageSize
	state.SearchText = c.Query("q")
	state.Category = c.Query("category")

	var err error
	if state.PriceMin, err = parsePrice(c.Query("min_price"), 0); err != nil {
		return state, errors.New("invalid min_price")
	}
	if state.PriceMax, err = parsePrice(c.Query("max_price"), math.Inf(1)); err != nil {
		return state, errors.New("invalid max_price")
	}

	for _, raw := range c.Context().QueryArgs().PeekMulti("brand") {
		for _, b := range strings.Split(string(raw), ",") {
			if b = strings.TrimSpace(b); b != "" {
				state.Brands = append(state.Brands, b)
			}
		}
	}

	if state.SortKey, err = catalog.ParseSortKey(c.Query("sort")); err != nil {
		return state, err
	}
	if state.SortDirection, err = catalog.ParseSortDirection(c.Query("dir")); err != nil {
		return state, err
	}

	if state.Page, err = parseInt(c.Query("page"), 1); err != nil {
		return state, errors.New("invalid page")
	}
	if state.PageSize, err = parseInt(c.Query("page_size"), state.PageSize); err != nil {
		return state, errors.New("invalid page_size")
	}
	if state.PageSize > h.cfg.MaxPageSize {
		state.PageSize = h.cfg.MaxPageSize
	}

	return state, nil
}

func parsePrice(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, errors.New("not a number")
	}
	return v, nil
}

func parseInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// ProductFacets returns the filter options for the whole catalog
func (h *Handler) ProductFacets(c *fiber.Ctx) error {
	products, err := h.store.ListProducts(c.Context())
	if err != nil {
		return internalError(c, err, "failed to list products")
	}
	return Success(c, catalog.Facets(products))
}

// GetProduct returns a single product by slug
func (h *Handler) GetProduct(c *fiber.Ctx) error {
	product, err := h.store.GetProductBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return Error(c, fiber.StatusNotFound, "product not found")
		}
		return internalError(c, err, "failed to get product")
	}

	detail := productDetail{Product: product, Discount: product.Discount()}
	if userID := middleware.GetUserID(c); userID != "" {
		watches, err := h.store.ListNotificationsByUser(c.Context(), userID)
		if err != nil {
			return internalError(c, err, "failed to list notifications")
		}
		for _, w := range watches {
			if w.ProductID == product.ID {
				detail.Watches = append(detail.Watches, w.PriceNotification)
			}
		}
	}
	return Success(c, detail)
}

// PriceHistory returns recent price observations for a product
func (h *Handler) PriceHistory(c *fiber.Ctx) error {
	product, err := h.store.GetProductBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return Error(c, fiber.StatusNotFound, "product not found")
		}
		return internalError(c, err, "failed to get product")
	}

	history, err := h.store.ListObservations(c.Context(), product.ID, c.QueryInt("limit", 100))
	if err != nil {
		return internalError(c, err, "failed to list price history")
	}
	return Success(c, history)
}

// ListCategories returns the storefront's categories
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.store.ListCategories(c.Context())
	if err != nil {
		return internalError(c, err, "failed to list categories")
	}
	return Success(c, categories)
}
