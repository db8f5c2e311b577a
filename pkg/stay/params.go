package stay

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the ISO calendar date format used for check-in/out.
const DateLayout = "2006-01-02"

var validate = validator.New()

// SearchParams is a user-supplied search query.
type SearchParams struct {
	Location     string   `json:"location" yaml:"location"`
	Checkin      *string  `json:"checkin,omitempty" yaml:"checkin,omitempty"`
	Checkout     *string  `json:"checkout,omitempty" yaml:"checkout,omitempty"`
	Adults       *int     `json:"adults,omitempty" yaml:"adults,omitempty" validate:"omitempty,min=0"`
	Children     *int     `json:"children,omitempty" yaml:"children,omitempty" validate:"omitempty,min=0"`
	Infants      *int     `json:"infants,omitempty" yaml:"infants,omitempty" validate:"omitempty,min=0"`
	Pets         *int     `json:"pets,omitempty" yaml:"pets,omitempty" validate:"omitempty,min=0"`
	MinPrice     *float64 `json:"min_price,omitempty" yaml:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice     *float64 `json:"max_price,omitempty" yaml:"max_price,omitempty" validate:"omitempty,gte=0"`
	PropertyType *string  `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	Cursor       *string  `json:"cursor,omitempty" yaml:"cursor,omitempty"`
}

// Validate checks p for blank location, malformed or unordered dates,
// contradictory price bounds and negative counts.
func (p SearchParams) Validate() error {
	if strings.TrimSpace(p.Location) == "" {
		return Validationf("location is required")
	}

	checkin, err := parseDate("checkin", p.Checkin)
	if err != nil {
		return err
	}
	checkout, err := parseDate("checkout", p.Checkout)
	if err != nil {
		return err
	}

	switch {
	case (checkin == nil) != (checkout == nil):
		return Validationf("both checkin and checkout must be provided together")
	case checkin != nil && !checkout.After(*checkin):
		return Validationf("checkout date must be after checkin date")
	}

	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return Validationf("min_price cannot be greater than max_price")
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Validationf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
		}
		return Validationf("invalid search parameters: %v", err)
	}
	return nil
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, Validationf("invalid %s date format: %q (expected YYYY-MM-DD)", field, *s)
	}
	return &t, nil
}
