package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// FilterFromQuery reads a search filter from URL query parameters:
// q, type, category, status, seller, tag, remote, min, max and sort.
// Unknown enum values and unparsable prices are validation errors.
func FilterFromQuery(q url.Values) (model.ListingFilter, error) {
	f := model.ListingFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		SellerID: model.UserID(q.Get("seller")),
		Tag:      strings.TrimSpace(q.Get("tag")),
	}

	if v := q.Get("type"); v != "" {
		f.ListingType = model.ListingType(v)
		if !f.ListingType.IsValid() {
			return f, fmt.Errorf("%w: unknown listing type %q", model.ErrValidationFailed, v)
		}
	}
	if v := q.Get("category"); v != "" {
		f.Category = model.Category(v)
		if !f.Category.IsValid() {
			return f, fmt.Errorf("%w: unknown category %q", model.ErrValidationFailed, v)
		}
	}
	if v := q.Get("status"); v != "" {
		f.Status = model.ListingStatus(v)
		if !f.Status.IsValid() {
			return f, fmt.Errorf("%w: unknown status %q", model.ErrValidationFailed, v)
		}
	}
	if v := q.Get("sort"); v != "" {
		switch s := model.SortOrder(v); s {
		case model.SortNewest, model.SortOldest, model.SortPriceAsc, model.SortPriceDesc:
			f.Sort = s
		default:
			return f, fmt.Errorf("%w: unknown sort order %q", model.ErrValidationFailed, v)
		}
	}
	if v := q.Get("remote"); v != "" {
		remote, err := strconv.ParseBool(v)
		if err != nil && v != "on" {
			return f, fmt.Errorf("%w: remote must be a boolean", model.ErrValidationFailed)
		}
		f.RemoteOnly = remote || v == "on"
	}

	var err error
	if f.MinPrice, err = parseBound(q.Get("min")); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parseBound(q.Get("max")); err != nil {
		return f, err
	}
	return f, nil
}

func parseBound(v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, ok := model.ParsePrice(v)
	if !ok {
		return nil, fmt.Errorf("%w: price bound %q is not a number", model.ErrValidationFailed, v)
	}
	return &n, nil
}
