// Package validation holds the validator shared by request payloads and
// service inputs.
package validation

import (
	venuereviews "reviewhub/internal/domain/venuereview"

	"github.com/go-playground/validator/v10"
)

// Validate is safe for concurrent use; struct metadata is cached on first use.
var Validate = New()

// New returns a validator with the custom tags registered:
//
//	score  an int within [venuereviews.MinScore, venuereviews.MaxScore]
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("score", validScore); err != nil {
		panic(err)
	}
	return v
}

func validScore(fl validator.FieldLevel) bool {
	return venuereviews.InRange(int(fl.Field().Int()))
}
