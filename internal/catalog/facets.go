package catalog

import (
	"slices"
	"strings"

	"github.com/foxxcyber/deal-finder/internal/models"
)

// Facets summarizes the filter options present in products. Categories are
// keyed by their normalized label and keep the first label seen for display.
func Facets(products []models.Product) models.CatalogFacets {
	facets := models.CatalogFacets{
		Categories: []models.CategorySummary{},
		Brands:     []string{},
	}

	categoryIndex := make(map[string]int)
	seenBrands := make(map[string]struct{})

	for i, p := range products {
		if slug := NormalizeLabel(p.Category); slug != "" {
			if idx, ok := categoryIndex[slug]; ok {
				facets.Categories[idx].ProductCount++
			} else {
				categoryIndex[slug] = len(facets.Categories)
				facets.Categories = append(facets.Categories, models.CategorySummary{
					Slug:         slug,
					Name:         strings.TrimSpace(p.Category),
					ProductCount: 1,
				})
			}
		}

		if p.Brand != "" {
			if _, ok := seenBrands[p.Brand]; !ok {
				seenBrands[p.Brand] = struct{}{}
				facets.Brands = append(facets.Brands, p.Brand)
			}
		}

		if i == 0 || p.Price < facets.PriceRange.Min {
			facets.PriceRange.Min = p.Price
		}
		if i == 0 || p.Price > facets.PriceRange.Max {
			facets.PriceRange.Max = p.Price
		}

		if p.InStock {
			facets.InStock++
		} else {
			facets.OutOfStock++
		}
	}

	slices.SortFunc(facets.Categories, func(a, b models.CategorySummary) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	slices.Sort(facets.Brands)
	return facets
}
