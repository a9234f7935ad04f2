package request

import (
	"encoding/base64"
	"fmt"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// CredentialsRequest is the request body for login and signup
type CredentialsRequest struct {
	Name       string `json:"name"`
	Credential string `json:"credential"`
}

// UpdateUserRequest edits a user profile. Name is renamed separately from
// the descriptive fields.
type UpdateUserRequest struct {
	Name *string `json:"name,omitempty"`
	model.ProfilePatch
}

// ImageRequest is either a direct URL or base64 file content
type ImageRequest struct {
	URL         string `json:"url,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Data        string `json:"data,omitempty"`
}

// Source converts the request to an image source
func (r ImageRequest) Source() (model.ImageSource, error) {
	if r.URL != "" {
		return model.FromURL(r.URL), nil
	}
	if r.Filename == "" {
		return model.ImageSource{}, fmt.Errorf("image needs a url or a filename")
	}
	data, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return model.ImageSource{}, fmt.Errorf("image %s: invalid base64 data", r.Filename)
	}
	return model.FromFile(r.Filename, r.ContentType, data), nil
}

// ImageSources converts a list of image requests
func ImageSources(images []ImageRequest) ([]model.ImageSource, error) {
	out := make([]model.ImageSource, 0, len(images))
	for _, img := range images {
		src, err := img.Source()
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// CreateListingRequest is the full listing form plus images
type CreateListingRequest struct {
	model.ListingForm
	Images []ImageRequest `json:"images,omitempty"`
}

// UpdateListingRequest is a partial listing form plus images to append
type UpdateListingRequest struct {
	model.ListingPatch
	Images []ImageRequest `json:"images,omitempty"`
}

// SetStatusRequest is the request body for changing a listing's status
type SetStatusRequest struct {
	Status model.ListingStatus `json:"status"`
}
