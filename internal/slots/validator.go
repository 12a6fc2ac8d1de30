package slots

import (
	"context"
	"time"

	"github.com/hackgods/clinic-availability-engine/internal/availability"
)

// WindowLister is the read side of the availability store.
type WindowLister interface {
	ListWindows(ctx context.Context, practitionerID int64) ([]availability.Window, error)
}

// Validator checks a requested instant against the practitioner's current windows.
// It satisfies appointment.SlotValidator.
type Validator struct {
	windows  WindowLister
	resolver *Resolver
}

func NewValidator(windows WindowLister, resolver *Resolver) *Validator {
	return &Validator{windows: windows, resolver: resolver}
}

func (v *Validator) ValidateSlot(ctx context.Context, practitionerID int64, at time.Time) error {
	windows, err := v.windows.ListWindows(ctx, practitionerID)
	if err != nil {
		return err
	}
	return v.resolver.CheckSlot(at, windows)
}
