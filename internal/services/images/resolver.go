// Package images turns image inputs into URLs a listing can store.
package images

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// PlaceholderURL is used when a listing has no images
const PlaceholderURL = "https://placehold.co/600x400?text=No+Image"

// Resolver turns an image source into a retrievable URL
type Resolver interface {
	Resolve(ctx context.Context, src model.ImageSource) (string, error)
}

// Placeholder does not store anything. Uploaded files become placeholder
// URLs that carry the file's metadata; direct URLs pass through.
type Placeholder struct {
	BaseURL string
}

// NewPlaceholder returns a resolver rooted at placehold.co
func NewPlaceholder() *Placeholder {
	return &Placeholder{BaseURL: "https://placehold.co/600x400"}
}

func (p *Placeholder) Resolve(ctx context.Context, src model.ImageSource) (string, error) {
	switch src.Kind {
	case model.ImageSourceDirectURL:
		return ValidateURL(src.URL)
	case model.ImageSourceUploadedFile:
		if src.File == nil {
			return "", fmt.Errorf("%w: uploaded image has no file", model.ErrValidationFailed)
		}
		q := url.Values{}
		q.Set("text", src.File.Filename)
		q.Set("size", strconv.Itoa(len(src.File.Data)))
		if src.File.ContentType != "" {
			q.Set("type", src.File.ContentType)
		}
		return p.BaseURL + "?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("%w: unknown image source %q", model.ErrValidationFailed, src.Kind)
	}
}

// ValidateURL accepts absolute http and https URLs
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: image url %q must be an absolute http(s) url", model.ErrValidationFailed, raw)
	}
	return raw, nil
}
