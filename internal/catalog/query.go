package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/foxxcyber/deal-finder/internal/models"
)

// ErrInvalidQueryState is returned when a query state cannot be evaluated.
// It is always wrapped with the reason.
var ErrInvalidQueryState = errors.New("invalid query state")

// Query runs the filter, sort and paginate pipeline over products.
//
// The products slice is treated as an immutable snapshot whose order is the
// canonical tie-break order. Neither products nor state are modified, and the
// same inputs always produce the same result.
func Query(products []models.Product, state models.QueryState) (models.QueryResult, error) {
	if err := Validate(state); err != nil {
		return models.QueryResult{}, err
	}

	matched := filter(products, state)
	sortProducts(matched, sortKeyOrDefault(state.SortKey), directionOrDefault(state.SortDirection))
	return paginate(matched, state.Page, state.PageSize), nil
}

// Validate rejects query states that cannot produce a meaningful page.
func Validate(state models.QueryState) error {
	if state.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidQueryState, state.PageSize)
	}
	if math.IsNaN(state.PriceMin) || math.IsNaN(state.PriceMax) {
		return fmt.Errorf("%w: price bounds must be numbers", ErrInvalidQueryState)
	}
	if state.PriceMin > state.PriceMax {
		return fmt.Errorf("%w: price min %.2f exceeds price max %.2f", ErrInvalidQueryState, state.PriceMin, state.PriceMax)
	}
	if _, err := ParseSortKey(string(state.SortKey)); err != nil {
		return err
	}
	if _, err := ParseSortDirection(string(state.SortDirection)); err != nil {
		return err
	}
	return nil
}

// ParseSortKey maps user input onto a sort key. Empty input selects featured.
func ParseSortKey(s string) (models.SortKey, error) {
	switch key := models.SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return models.SortFeatured, nil
	case models.SortName, models.SortPrice, models.SortRating, models.SortNewest, models.SortFeatured:
		return key, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidQueryState, s)
	}
}

// ParseSortDirection maps user input onto a direction. Empty input selects asc.
func ParseSortDirection(s string) (models.SortDirection, error) {
	switch dir := models.SortDirection(strings.ToLower(strings.TrimSpace(s))); dir {
	case "":
		return models.SortAsc, nil
	case models.SortAsc, models.SortDesc:
		return dir, nil
	default:
		return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidQueryState, s)
	}
}

func sortKeyOrDefault(k models.SortKey) models.SortKey {
	key, _ := ParseSortKey(string(k))
	return key
}

func directionOrDefault(d models.SortDirection) models.SortDirection {
	dir, _ := ParseSortDirection(string(d))
	return dir
}

// filter applies category, price range, brand and search stages in that order
// and returns a fresh slice in input order.
func filter(products []models.Product, state models.QueryState) []models.Product {
	category := NormalizeLabel(state.Category)

	var brands map[string]struct{}
	if len(state.Brands) > 0 {
		brands = make(map[string]struct{}, len(state.Brands))
		for _, b := range state.Brands {
			brands[b] = struct{}{}
		}
	}

	search := strings.ToLower(strings.TrimSpace(state.SearchText))

	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category != "" && NormalizeLabel(p.Category) != category {
			continue
		}
		if p.Price < state.PriceMin || p.Price > state.PriceMax {
			continue
		}
		if brands != nil {
			if _, ok := brands[p.Brand]; !ok {
				continue
			}
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// matchesSearch expects needle to be lower-cased already.
func matchesSearch(p models.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

type sortEntry struct {
	product models.Product
	name    string
}

// sortProducts stable-sorts in place. For desc the comparator result is
// negated, so equal keys keep insertion order in both directions.
func sortProducts(products []models.Product, key models.SortKey, dir models.SortDirection) {
	entries := make([]sortEntry, len(products))
	for i, p := range products {
		entries[i] = sortEntry{product: p}
		if key == models.SortName {
			entries[i].name = strings.ToLower(p.Name)
		}
	}

	compare := comparator(key)
	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		c := compare(a, b)
		if dir == models.SortDesc {
			return -c
		}
		return c
	})

	for i := range entries {
		products[i] = entries[i].product
	}
}

func comparator(key models.SortKey) func(a, b sortEntry) int {
	switch key {
	case models.SortName:
		return func(a, b sortEntry) int { return strings.Compare(a.name, b.name) }
	case models.SortPrice:
		return func(a, b sortEntry) int { return cmp.Compare(a.product.Price, b.product.Price) }
	case models.SortRating:
		return func(a, b sortEntry) int { return cmp.Compare(a.product.Rating, b.product.Rating) }
	case models.SortNewest:
		// newest first is the natural order
		return func(a, b sortEntry) int { return b.product.CreatedAt.Compare(a.product.CreatedAt) }
	default:
		return func(a, b sortEntry) int {
			switch {
			case a.product.Featured == b.product.Featured:
				return 0
			case a.product.Featured:
				return -1
			default:
				return 1
			}
		}
	}
}

func paginate(products []models.Product, page, pageSize int) models.QueryResult {
	total := len(products)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	page = min(max(page, 1), max(totalPages, 1))
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	items := make([]models.Product, end-start)
	copy(items, products[start:end])

	return models.QueryResult{
		Items:        items,
		TotalMatched: total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	}
}
