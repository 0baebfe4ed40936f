package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (s *Store) validateInput(in ProductInput) error {
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return shared.NewValidationError(fieldName(fe.Field()), fieldMessage(fe))
		}
		return shared.NewValidationError("", err.Error())
	}
	return nil
}

func fieldName(name string) string {
	switch name {
	case "ReorderLevel":
		return "reorderLevel"
	case "ImageURL":
		return "imageUrl"
	default:
		return strings.ToLower(name)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// normalise trims the input, applies defaults and validates it.
func (s *Store) normalise(in ProductInput) (ProductInput, Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := s.validateInput(in); err != nil {
		return ProductInput{}, "", err
	}
	category := CategoryUncategorized
	if strings.TrimSpace(in.Category) != "" {
		cat, err := NewCategory(in.Category)
		if err != nil {
			return ProductInput{}, "", err
		}
		category = cat
	}
	return in, category, nil
}
