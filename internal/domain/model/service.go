package model

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

const (
	maxServiceNameLen  = 200
	maxDurationDescLen = 500
)

// Service is a catalogue entry priced per orientation.
type Service struct {
	ID                  int             `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	DurationDescription string          `json:"durationDescription,omitempty"`
	MinDuration         *int            `json:"minDuration,omitempty"`
	MaxDuration         *int            `json:"maxDuration,omitempty"`
	Orientation         Orientation     `json:"orientation"`
	PriceVertical       *float64        `json:"priceVertical,omitempty"`
	PriceHorizontal     *float64        `json:"priceHorizontal,omitempty"`
	PriceBoth           *float64        `json:"priceBoth,omitempty"`
	AdditionalOptions   json.RawMessage `json:"additionalOptions,omitempty"`
	CreatedAt           time.Time       `json:"createdAt,omitzero"`
	UpdatedAt           time.Time       `json:"updatedAt,omitzero"`
}

// Price returns the price for orientation o, if one is set.
func (s Service) Price(o Orientation) (float64, bool) {
	var p *float64
	switch o {
	case OrientationVertical:
		p = s.PriceVertical
	case OrientationHorizontal:
		p = s.PriceHorizontal
	case OrientationBoth:
		p = s.PriceBoth
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// ServiceInput is the create/update payload. Optional fields left nil are
// not sent.
type ServiceInput struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	DurationDescription string          `json:"durationDescription,omitempty"`
	MinDuration         *int            `json:"minDuration,omitempty"`
	MaxDuration         *int            `json:"maxDuration,omitempty"`
	Orientation         Orientation     `json:"orientation"`
	PriceVertical       *float64        `json:"priceVertical,omitempty"`
	PriceHorizontal     *float64        `json:"priceHorizontal,omitempty"`
	PriceBoth           *float64        `json:"priceBoth,omitempty"`
	AdditionalOptions   json.RawMessage `json:"additionalOptions,omitempty"`
}

// Normalize trims text fields and validates the input.
func (in *ServiceInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.DurationDescription = strings.TrimSpace(in.DurationDescription)

	switch {
	case in.Name == "":
		return apperrors.ValidationField("name", "name is required")
	case utf8.RuneCountInString(in.Name) > maxServiceNameLen:
		return apperrors.ValidationField("name", "name cannot exceed 200 characters")
	case in.Description == "":
		return apperrors.ValidationField("description", "description is required")
	case utf8.RuneCountInString(in.DurationDescription) > maxDurationDescLen:
		return apperrors.ValidationField("durationDescription", "duration description cannot exceed 500 characters")
	case !in.Orientation.Valid():
		return apperrors.ValidationField("orientation", "orientation must be vertical, horizontal or both")
	}
	if err := nonNegative("minDuration", in.MinDuration); err != nil {
		return err
	}
	if err := nonNegative("maxDuration", in.MaxDuration); err != nil {
		return err
	}
	if in.MinDuration != nil && in.MaxDuration != nil && *in.MinDuration > *in.MaxDuration {
		return apperrors.ValidationField("maxDuration", "must not be below minDuration")
	}
	if err := nonNegative("priceVertical", in.PriceVertical); err != nil {
		return err
	}
	if err := nonNegative("priceHorizontal", in.PriceHorizontal); err != nil {
		return err
	}
	if err := nonNegative("priceBoth", in.PriceBoth); err != nil {
		return err
	}
	if len(in.AdditionalOptions) > 0 {
		trimmed := strings.TrimSpace(string(in.AdditionalOptions))
		if trimmed == "" {
			in.AdditionalOptions = nil
		} else if !json.Valid([]byte(trimmed)) {
			return apperrors.ValidationField("additionalOptions", "invalid JSON")
		} else {
			in.AdditionalOptions = json.RawMessage(trimmed)
		}
	}
	return nil
}

func nonNegative[N int | float64](field string, v *N) error {
	if v != nil && *v < 0 {
		return apperrors.ValidationField(field, "must be >= 0")
	}
	return nil
}
