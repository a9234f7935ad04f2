package listingform

import (
	"context"
	"errors"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

// Submitter publishes a completed form
type Submitter interface {
	CreateListing(ctx context.Context, form model.ListingForm, images []model.ImageSource) (*model.Listing, error)
}

// Wizard walks the form one step at a time. Moving forward requires the
// current step to be valid; moving back never does.
type Wizard struct {
	Input Input
	index int
}

// NewWizard starts at the first step with a sell listing preselected
func NewWizard() *Wizard {
	return &Wizard{
		Input: Input{Form: model.ListingForm{ListingType: model.ListingTypeSell}},
	}
}

// Step returns the current step
func (w *Wizard) Step() Step {
	return Steps()[w.index]
}

// IsFirst reports whether the wizard is on the first step
func (w *Wizard) IsFirst() bool {
	return w.index == 0
}

// IsLast reports whether the wizard is on the final step
func (w *Wizard) IsLast() bool {
	return w.index == len(Steps())-1
}

// Next validates the current step and advances
func (w *Wizard) Next() error {
	if err := ValidateStep(w.Step(), w.Input); err != nil {
		return err
	}
	if !w.IsLast() {
		w.index++
	}
	return nil
}

// Back returns to the previous step
func (w *Wizard) Back() {
	if w.index > 0 {
		w.index--
	}
}

// Submit validates everything and hands the form to s. On a validation
// failure the wizard jumps to the offending step.
func (w *Wizard) Submit(ctx context.Context, s Submitter) (*model.Listing, error) {
	if err := Validate(w.Input); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.jumpTo(verr.Step)
		}
		return nil, err
	}
	return s.CreateListing(ctx, w.Input.Form, w.Input.Images)
}

func (w *Wizard) jumpTo(step Step) {
	for i, s := range Steps() {
		if s == step {
			w.index = i
			return
		}
	}
}
