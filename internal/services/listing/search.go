package listing

import (
	"sort"
	"strings"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// Search returns the listings matching filter. A listing whose price is not
// a number never matches when a price bound is set.
func (s *Store) Search(filter model.ListingFilter) []model.Listing {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	tag := strings.ToLower(strings.TrimSpace(filter.Tag))

	results := s.collect(func(l *model.Listing) bool {
		if filter.ListingType != "" && l.ListingType != filter.ListingType {
			return false
		}
		if filter.Category != "" && l.Category != filter.Category {
			return false
		}
		if filter.Status != "" && l.Status != filter.Status {
			return false
		}
		if filter.SellerID != "" && l.SellerID != filter.SellerID {
			return false
		}
		if filter.RemoteOnly && !l.IsRemote {
			return false
		}
		if tag != "" && !hasTag(l, tag) {
			return false
		}
		if query != "" && !matchesQuery(l, query) {
			return false
		}
		if filter.MinPrice != nil || filter.MaxPrice != nil {
			price, ok := l.NumericPrice()
			if !ok {
				return false
			}
			if filter.MinPrice != nil && price < *filter.MinPrice {
				return false
			}
			if filter.MaxPrice != nil && price > *filter.MaxPrice {
				return false
			}
		}
		return true
	})

	sortListings(results, filter.Sort)
	return results
}

func hasTag(l *model.Listing, tag string) bool {
	for _, t := range l.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

func matchesQuery(l *model.Listing, query string) bool {
	fields := []string{l.Title, l.ShortDescription, l.DetailedDescription}
	fields = append(fields, l.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func sortListings(listings []model.Listing, order model.SortOrder) {
	switch order {
	case model.SortOldest:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].CreatedAt.Before(listings[j].CreatedAt)
		})
	case model.SortPriceAsc, model.SortPriceDesc:
		// Unpriced listings sort last in both directions
		sort.SliceStable(listings, func(i, j int) bool {
			pi, oki := listings[i].NumericPrice()
			pj, okj := listings[j].NumericPrice()
			if oki != okj {
				return oki
			}
			if order == model.SortPriceAsc {
				return pi < pj
			}
			return pi > pj
		})
	default:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		})
	}
}
