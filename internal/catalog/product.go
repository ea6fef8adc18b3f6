package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/foxxcyber/deal-finder/internal/models"
)

var ErrInvalidProduct = errors.New("invalid product")

// ValidateProduct checks a product before it enters the catalog.
func ValidateProduct(req models.CreateProductRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case NormalizeLabel(req.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	case !validPrice(req.Price):
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	case req.OriginalPrice != nil && !validPrice(*req.OriginalPrice):
		return fmt.Errorf("%w: original price must be a non-negative number", ErrInvalidProduct)
	case req.OriginalPrice != nil && *req.OriginalPrice < req.Price:
		return fmt.Errorf("%w: original price cannot be below the price", ErrInvalidProduct)
	case math.IsNaN(req.Rating) || req.Rating < 0 || req.Rating > 5:
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidProduct)
	case req.ReviewCount < 0:
		return fmt.Errorf("%w: review count cannot be negative", ErrInvalidProduct)
	}
	return nil
}

// ValidPrice reports whether p can be stored as a price.
func ValidPrice(p float64) bool {
	return validPrice(p)
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}
