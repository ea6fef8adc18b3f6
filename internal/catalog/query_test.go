package catalog

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/foxxcyber/deal-finder/internal/models"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 12, 0, 0, 0, time.UTC)
}

func fixtureProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Cordless Drill", Description: "18V drill with two batteries", Price: 89.99, Rating: 4.5,
			Category: "Home & Garden", Brand: "Bosch", Tags: []string{"tools", "power"}, InStock: true, CreatedAt: day(1)},
		{ID: "2", Name: "Garden Hose", Description: "50ft expandable hose", Price: 25, Rating: 4.0,
			Category: "home-&-garden", Brand: "Flexi", Tags: []string{"outdoor"}, InStock: true, Featured: true, CreatedAt: day(2)},
		{ID: "3", Name: "air fryer", Description: "Crispy food with less oil", Price: 120, Rating: 4.5,
			Category: "Kitchen", Brand: "Ninja", Tags: []string{"appliance", "cooking"}, InStock: false, CreatedAt: day(3)},
		{ID: "4", Name: "Blender", Description: "Smoothies in seconds", Price: 60, Rating: 3.5,
			Category: "Kitchen", Brand: "Ninja", Tags: []string{"appliance"}, InStock: true, Featured: true, CreatedAt: day(4)},
		{ID: "5", Name: "Bluetooth Speaker", Description: "Portable speaker", Price: 25, Rating: 4.8,
			Category: "Electronics", Brand: "JBL", Tags: []string{"audio", "wireless"}, InStock: true, CreatedAt: day(5)},
		{ID: "6", Name: "Noise Cancelling Headphones", Description: "Over-ear wireless", Price: 199, Rating: 4.8,
			Category: "Electronics", Brand: "Sony", Tags: []string{"audio"}, InStock: true, Featured: true, CreatedAt: day(2)},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func stateWith(mutate func(*models.QueryState)) models.QueryState {
	s := models.NewQueryState()
	s.PageSize = 100
	if mutate != nil {
		mutate(&s)
	}
	return s
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state models.QueryState
		want  []string
	}{
		{
			name:  "no filters keeps everything",
			state: stateWith(func(s *models.QueryState) { s.SortKey = models.SortName }),
			want:  []string{"3", "4", "5", "1", "2", "6"},
		},
		{
			name: "category matches every spelling of the same label",
			state: stateWith(func(s *models.QueryState) {
				s.Category = "  Home   &  Garden "
				s.SortKey = models.SortName
			}),
			want: []string{"1", "2"},
		},
		{
			name: "price bounds are inclusive",
			state: stateWith(func(s *models.QueryState) {
				s.PriceMin = 25
				s.PriceMax = 89.99
				s.SortKey = models.SortPrice
			}),
			want: []string{"2", "5", "4", "1"},
		},
		{
			name: "brands are OR-combined",
			state: stateWith(func(s *models.QueryState) {
				s.Brands = []string{"Ninja", "JBL"}
				s.SortKey = models.SortName
			}),
			want: []string{"3", "4", "5"},
		},
		{
			name:  "brand match is case sensitive",
			state: stateWith(func(s *models.QueryState) { s.Brands = []string{"ninja"} }),
			want:  []string{},
		},
		{
			name: "search looks at tags and description case-insensitively",
			state: stateWith(func(s *models.QueryState) {
				s.SearchText = "WIRELESS"
				s.SortKey = models.SortName
			}),
			want: []string{"5", "6"},
		},
		{
			name:  "search matches the name",
			state: stateWith(func(s *models.QueryState) { s.SearchText = "hose" }),
			want:  []string{"2"},
		},
		{
			name:  "blank search is ignored",
			state: stateWith(func(s *models.QueryState) { s.SearchText = "   "; s.SortKey = models.SortName }),
			want:  []string{"3", "4", "5", "1", "2", "6"},
		},
		{
			name: "stages combine",
			state: stateWith(func(s *models.QueryState) {
				s.Category = "kitchen"
				s.SearchText = "appliance"
				s.PriceMax = 100
			}),
			want: []string{"4"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Query(fixtureProducts(), tt.state)
			if err != nil {
				t.Fatalf("Query returned error: %v", err)
			}
			if got := ids(res.Items); !slices.Equal(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if res.TotalMatched != len(tt.want) {
				t.Fatalf("expected total %d, got %d", len(tt.want), res.TotalMatched)
			}
		})
	}
}

func TestQuerySort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  models.SortKey
		dir  models.SortDirection
		want []string
	}{
		{models.SortName, models.SortAsc, []string{"3", "4", "5", "1", "2", "6"}},
		{models.SortName, models.SortDesc, []string{"6", "2", "1", "5", "4", "3"}},
		{models.SortPrice, models.SortAsc, []string{"2", "5", "4", "1", "3", "6"}},
		{models.SortPrice, models.SortDesc, []string{"6", "3", "1", "4", "2", "5"}},
		{models.SortRating, models.SortAsc, []string{"4", "2", "1", "3", "5", "6"}},
		{models.SortRating, models.SortDesc, []string{"5", "6", "1", "3", "2", "4"}},
		{models.SortNewest, models.SortAsc, []string{"5", "4", "3", "2", "6", "1"}},
		{models.SortNewest, models.SortDesc, []string{"1", "2", "6", "3", "4", "5"}},
		{models.SortFeatured, models.SortAsc, []string{"2", "4", "6", "1", "3", "5"}},
		{models.SortFeatured, models.SortDesc, []string{"1", "3", "5", "2", "4", "6"}},
		{"", "", []string{"2", "4", "6", "1", "3", "5"}},
	}

	for _, tt := range tests {
		state := stateWith(func(s *models.QueryState) {
			s.SortKey = tt.key
			s.SortDirection = tt.dir
		})
		res, err := Query(fixtureProducts(), state)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error: %v", tt.key, tt.dir, err)
		}
		if got := ids(res.Items); !slices.Equal(got, tt.want) {
			t.Fatalf("%s/%s: expected %v, got %v", tt.key, tt.dir, tt.want, got)
		}
	}
}

func TestQueryPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		page      int
		size      int
		wantPage  int
		wantItems []string
		wantPages int
	}{
		{"first page", 1, 4, 1, []string{"2", "4", "6", "1"}, 2},
		{"last partial page", 2, 4, 2, []string{"3", "5"}, 2},
		{"page past the end is clamped", 99, 4, 2, []string{"3", "5"}, 2},
		{"page below one is clamped", 0, 4, 1, []string{"2", "4", "6", "1"}, 2},
		{"exact multiple", 3, 2, 3, []string{"3", "5"}, 3},
		{"single page", 1, 6, 1, []string{"2", "4", "6", "1", "3", "5"}, 1},
	}

	for _, tt := range tests {
		state := models.NewQueryState()
		state.Page = tt.page
		state.PageSize = tt.size

		res, err := Query(fixtureProducts(), state)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if res.Page != tt.wantPage || res.TotalPages != tt.wantPages || res.TotalMatched != 6 {
			t.Fatalf("%s: unexpected paging: %+v", tt.name, res)
		}
		if got := ids(res.Items); !slices.Equal(got, tt.wantItems) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantItems, got)
		}
		if state.Page != tt.page {
			t.Fatalf("%s: caller state was mutated", tt.name)
		}
	}
}

func TestQueryNoMatches(t *testing.T) {
	t.Parallel()

	state := models.NewQueryState()
	state.Category = "Toys"
	state.Page = 3

	res, err := Query(fixtureProducts(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMatched != 0 || res.TotalPages != 0 || res.Page != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", res.Items)
	}
}

func TestQueryPagesPartitionResult(t *testing.T) {
	t.Parallel()

	products := fixtureProducts()
	for _, key := range []models.SortKey{models.SortName, models.SortPrice, models.SortRating, models.SortNewest, models.SortFeatured} {
		for _, dir := range []models.SortDirection{models.SortAsc, models.SortDesc} {
			full, err := Query(products, stateWith(func(s *models.QueryState) {
				s.SortKey = key
				s.SortDirection = dir
			}))
			if err != nil {
				t.Fatalf("full query: %v", err)
			}

			for size := 1; size <= 7; size++ {
				state := stateWith(func(s *models.QueryState) {
					s.SortKey = key
					s.SortDirection = dir
					s.PageSize = size
				})
				first, err := Query(products, state)
				if err != nil {
					t.Fatalf("page query: %v", err)
				}

				var joined []string
				for page := 1; page <= first.TotalPages; page++ {
					state.Page = page
					res, err := Query(products, state)
					if err != nil {
						t.Fatalf("page %d: %v", page, err)
					}
					joined = append(joined, ids(res.Items)...)
				}
				if want := ids(full.Items); !slices.Equal(joined, want) {
					t.Fatalf("%s/%s size %d: pages %v do not partition %v", key, dir, size, joined, want)
				}
			}
		}
	}
}

func TestQueryIsIdempotent(t *testing.T) {
	t.Parallel()

	products := fixtureProducts()
	before := fixtureProducts()
	state := stateWith(func(s *models.QueryState) {
		s.SortKey = models.SortRating
		s.SortDirection = models.SortDesc
		s.PageSize = 4
	})

	first, err := Query(products, state)
	if err != nil {
		t.Fatalf("first query: %v", err)
	}
	second, err := Query(products, state)
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(products, before) {
		t.Fatalf("input collection was reordered or modified")
	}
}

func TestQueryRejectsInvalidState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.QueryState)
	}{
		{"zero page size", func(s *models.QueryState) { s.PageSize = 0 }},
		{"negative page size", func(s *models.QueryState) { s.PageSize = -5 }},
		{"inverted price range", func(s *models.QueryState) { s.PriceMin = 50; s.PriceMax = 10 }},
		{"NaN price bound", func(s *models.QueryState) { s.PriceMin = math.NaN() }},
		{"unknown sort key", func(s *models.QueryState) { s.SortKey = "popularity" }},
		{"unknown direction", func(s *models.QueryState) { s.SortDirection = "sideways" }},
	}

	for _, tt := range tests {
		state := models.NewQueryState()
		tt.mutate(&state)
		_, err := Query(fixtureProducts(), state)
		if !errors.Is(err, ErrInvalidQueryState) {
			t.Fatalf("%s: expected ErrInvalidQueryState, got %v", tt.name, err)
		}
	}
}

func TestQueryEqualBoundsSelectExactPrice(t *testing.T) {
	t.Parallel()

	state := stateWith(func(s *models.QueryState) {
		s.PriceMin = 25
		s.PriceMax = 25
	})
	res, err := Query(fixtureProducts(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Items); !slices.Equal(got, []string{"2", "5"}) {
		t.Fatalf("expected products priced exactly 25, got %v", got)
	}
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	if k, err := ParseSortKey(" Price "); err != nil || k != models.SortPrice {
		t.Fatalf("expected price, got %q %v", k, err)
	}
	if k, err := ParseSortKey(""); err != nil || k != models.SortFeatured {
		t.Fatalf("expected featured default, got %q %v", k, err)
	}
	if _, err := ParseSortDirection("up"); !errors.Is(err, ErrInvalidQueryState) {
		t.Fatalf("expected invalid direction, got %v", err)
	}
}
