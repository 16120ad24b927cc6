package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("maxbytes", maxBytes)
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// maxBytes bounds the encoded length of a string, unlike max which
// counts runes. bcrypt rejects passwords longer than 72 bytes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Struct validates v against its `validate` tags and reports the first
// failing field as VALIDATION_FAILED.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return commonerrors.ErrValidation.WithCause(describe(fieldErrs[0]))
	}
	return commonerrors.ErrValidation.WithCause(err)
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "maxbytes":
		return fmt.Errorf("%s must be at most %s bytes", fe.Field(), fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Errorf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Errorf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag())
}

// Details returns the client-safe explanation carried by a validation error.
func Details(err error) string {
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Code() != commonerrors.ErrValidation.Code() || de.Unwrap() == nil {
		return ""
	}
	return de.Unwrap().Error()
}
