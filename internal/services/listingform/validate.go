// Package listingform validates the multi-step listing creation form.
package listingform

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// Step names one page of the form
type Step string

const (
	StepBasics    Step = "basics"
	StepDetails   Step = "details"
	StepLogistics Step = "logistics"
	StepMedia     Step = "media"
)

// Steps returns the form pages in order
func Steps() []Step {
	return []Step{StepBasics, StepDetails, StepLogistics, StepMedia}
}

// ParseStep converts a step name
func ParseStep(s string) (Step, bool) {
	step := Step(s)
	return step, slices.Contains(Steps(), step)
}

// Limits
const (
	MinTitleLength         = 3
	MaxTitleLength         = 100
	MaxShortDescription    = 200
	MaxDetailedDescription = 5000
	MaxTags                = 10
	MaxTagLength           = 30
	MaxImages              = 8
)

// Input is everything the form collects. ExistingImages counts images a
// listing already carries when the form edits it.
type Input struct {
	Form           model.ListingForm
	Images         []model.ImageSource
	ExistingImages int
}

// ValidationError lists the invalid fields of one step
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return fmt.Sprintf("%s: %s step: %s", model.ErrValidationFailed, e.Step, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return model.ErrValidationFailed
}

// ValidateStep checks the fields belonging to one step
func ValidateStep(step Step, in Input) error {
	fields := map[string]string{}
	f := in.Form

	switch step {
	case StepBasics:
		if !f.ListingType.IsValid() {
			fields["listingType"] = "choose a listing type"
		} else if !slices.Contains(model.CategoriesFor(f.ListingType), f.Category) {
			fields["category"] = fmt.Sprintf("choose a category for %s listings", f.ListingType)
		}
		title := utf8.RuneCountInString(strings.TrimSpace(f.Title))
		if title < MinTitleLength || title > MaxTitleLength {
			fields["title"] = fmt.Sprintf("must be %d to %d characters", MinTitleLength, MaxTitleLength)
		}

	case StepDetails:
		if strings.TrimSpace(f.ShortDescription) == "" {
			fields["shortDescription"] = "is required"
		} else if utf8.RuneCountInString(f.ShortDescription) > MaxShortDescription {
			fields["shortDescription"] = fmt.Sprintf("must be at most %d characters", MaxShortDescription)
		}
		if utf8.RuneCountInString(f.DetailedDescription) > MaxDetailedDescription {
			fields["detailedDescription"] = fmt.Sprintf("must be at most %d characters", MaxDetailedDescription)
		}
		if f.Condition != "" && !f.ListingType.IsService() && !slices.Contains(model.ValidConditions(), f.Condition) {
			fields["condition"] = "choose a valid condition"
		}
		if f.ListingType != model.ListingTypeTrade && strings.TrimSpace(f.Price) == "" {
			fields["price"] = "is required"
		}

	case StepLogistics:
		if !f.IsRemote && strings.TrimSpace(f.Location) == "" {
			fields["location"] = "is required unless the listing is remote"
		}
		if strings.TrimSpace(f.ContactInfo) == "" {
			fields["contactInfo"] = "is required"
		}

	case StepMedia:
		tags := model.ParseTags(f.Tags)
		if len(tags) > MaxTags {
			fields["tags"] = fmt.Sprintf("at most %d tags", MaxTags)
		}
		for _, tag := range tags {
			if utf8.RuneCountInString(tag) > MaxTagLength {
				fields["tags"] = fmt.Sprintf("tag %q is longer than %d characters", tag, MaxTagLength)
				break
			}
		}
		if in.ExistingImages+len(in.Images) > MaxImages {
			fields["images"] = fmt.Sprintf("at most %d images", MaxImages)
		}

	default:
		return fmt.Errorf("%w: unknown step %q", model.ErrValidationFailed, step)
	}

	if len(fields) > 0 {
		return &ValidationError{Step: step, Fields: fields}
	}
	return nil
}

// Validate checks every step and returns the first failure
func Validate(in Input) error {
	for _, step := range Steps() {
		if err := ValidateStep(step, in); err != nil {
			return err
		}
	}
	return nil
}
