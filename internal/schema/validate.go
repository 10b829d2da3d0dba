package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/astrolabe-oss/corelib/internal/types"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks v against the required and choice constraints declared
// for its kind. Dual-key kinds additionally need an address or at least one
// DNS name and fail with ErrInvalidIdentity otherwise.
func Validate(v Vertex) error {
	s, err := Lookup(v.Kind())
	if err != nil {
		return err
	}

	attrs := v.Attributes()
	if s.DualKey && attrs["address"] == nil && attrs["dns_names"] == nil {
		return types.WrapError(types.INVALID_IDENTITY,
			fmt.Sprintf("%s requires address or dns_names", v.Kind()), ErrInvalidIdentity)
	}

	var problems []string
	for _, f := range s.Fields {
		tag := f.tag()
		if tag == "" {
			continue
		}
		value := attrs[f.Name]
		if value == nil {
			value = ""
		}
		if err := fieldValidator().Var(value, tag); err != nil {
			problems = append(problems, formatFieldError(f, err))
		}
	}

	if len(problems) > 0 {
		return types.WrapError(types.VERTEX_VALIDATION_FAILED,
			fmt.Sprintf("invalid %s: %s", v.Kind(), strings.Join(problems, "; ")), ErrValidation)
	}
	return nil
}

// tag renders the validator tag for a field, or "" when unconstrained.
func (f Field) tag() string {
	var parts []string
	if f.Required {
		parts = append(parts, "required")
	} else if len(f.Choices) > 0 {
		parts = append(parts, "omitempty")
	}
	if len(f.Choices) > 0 {
		parts = append(parts, "oneof="+strings.Join(f.Choices, " "))
	}
	return strings.Join(parts, ",")
}

func formatFieldError(f Field, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("field '%s': %v", f.Name, err)
	}
	switch verrs[0].Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", f.Name)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of [%s], got %q", f.Name, strings.Join(f.Choices, ", "), verrs[0].Value())
	default:
		return fmt.Sprintf("field '%s' failed '%s' validation", f.Name, verrs[0].Tag())
	}
}
