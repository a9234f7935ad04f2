package components

import (
	"strings"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

func typeOptions() []string {
	var out []string
	for _, t := range model.ValidListingTypes() {
		out = append(out, string(t))
	}
	return out
}

func categoryOptions() []string {
	var out []string
	for _, c := range append(model.ItemCategories(), model.ServiceCategories()...) {
		out = append(out, string(c))
	}
	return out
}

func sortOptions() []string {
	return []string{
		string(model.SortNewest), string(model.SortOldest),
		string(model.SortPriceAsc), string(model.SortPriceDesc),
	}
}

func locationLabel(l model.Listing) string {
	if l.IsRemote {
		return strings.TrimSpace(l.Location + " (remote)")
	}
	return l.Location
}
