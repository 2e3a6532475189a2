package events

import (
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input is the validated content of the event form. Text fields are kept
// as submitted apart from surrounding whitespace, so a blank value is valid.
type Input struct {
	VenueID  int64  `form:"venue_id" validate:"gt=0"`
	Title    string `form:"title"`
	StartsAt string `form:"starts_at"`
	EndsAt   string `form:"ends_at"`
	Status   string `form:"status"`
}

// formFields are the keys every event form submission must carry.
var formFields = []string{"venue_id", "title", "starts_at", "ends_at", "status"}

// ValidationError lists the form fields that were absent and the ones that
// were present but unusable. It matches ErrBadRequest.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return ErrBadRequest.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})
	return v
}

// ParseInput reads the event form. A field is missing only when its key is
// absent; venue_id must also be a positive integer.
func ParseInput(values url.Values) (Input, error) {
	verr := &ValidationError{}
	for _, name := range formFields {
		if _, ok := values[name]; !ok {
			verr.Missing = append(verr.Missing, name)
		}
	}

	input := Input{
		Title:    strings.TrimSpace(values.Get("title")),
		StartsAt: strings.TrimSpace(values.Get("starts_at")),
		EndsAt:   strings.TrimSpace(values.Get("ends_at")),
		Status:   strings.TrimSpace(values.Get("status")),
	}

	if _, ok := values["venue_id"]; ok {
		venueID, err := strconv.ParseInt(strings.TrimSpace(values.Get("venue_id")), 10, 64)
		if err != nil {
			verr.Invalid = append(verr.Invalid, "venue_id")
		} else {
			input.VenueID = venueID
			if err := formValidator.Struct(input); err != nil {
				var fieldErrs validator.ValidationErrors
				if !errors.As(err, &fieldErrs) {
					return Input{}, err
				}
				for _, fe := range fieldErrs {
					verr.Invalid = append(verr.Invalid, fe.Field())
				}
			}
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return Input{}, verr
	}
	return input, nil
}
