package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request is the checkout payload posted by the client.
type Request struct {
	CustomerEmail string        `json:"customerEmail" validate:"omitempty,email"`
	Items         []RequestItem `json:"items" validate:"required,min=1,dive"`
}

// RequestItem references a catalog price. A zero quantity defaults to 1;
// anything outside [1,10] is a validation failure.
type RequestItem struct {
	PriceID  string `json:"priceId" validate:"required"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1,max=10"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON field names, not Go struct field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns one human-readable issue per failing field, or nil.
func (r *Request) Validate() []string {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	issues := make([]string, 0, len(errs))
	for _, fe := range errs {
		issues = append(issues, fmt.Sprintf("%s: %s", fieldPath(fe), issueMessage(fe)))
	}
	return issues
}

// fieldPath strips the top-level struct name from the namespace, leaving
// paths like "items[0].priceId".
func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
