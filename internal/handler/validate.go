package handler

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/moroccoview/companion/internal/domain"
)

// validator wraps go-playground/validator so request DTO failures come back
// as domain.ErrValidation with field names taken from the JSON tags.
type validator struct {
	v *playground.Validate
}

func newValidator() *validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})
	return &validator{v: v}
}

// Struct validates s and returns nil or an error wrapping domain.ErrValidation.
func (v *validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, fieldPath(e)+" "+friendlyMessage(e))
	}
	slices.Sort(msgs)
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// fieldPath drops the top-level struct name from the namespace:
// "createTourRequest.days[0].day" → "days[0].day".
func fieldPath(e playground.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func friendlyMessage(e playground.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + e.Param() + " entries"
	case "max":
		return "must not exceed " + e.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
