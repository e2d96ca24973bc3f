package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// validate carries the shared rule set for the domain models. The date rule
// enforces the wire layout, everything else is struct tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	must(v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// sanitizer strips all HTML from user-supplied strings before they reach a
// store. The strict policy also entity-escapes what remains.
var sanitizer = bluemonday.StrictPolicy()

// CleanString sanitizes one user-supplied string.
func CleanString(s string) string {
	return sanitizer.Sanitize(s)
}

func cleanOptional(p *string) *string {
	if p == nil {
		return nil
	}
	cleaned := sanitizer.Sanitize(*p)
	return &cleaned
}
