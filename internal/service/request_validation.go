package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

const (
	minWhatsAppDigits = 10
	maxWhatsAppDigits = 15
)

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("whatsapp", func(fl validator.FieldLevel) bool {
		n := len(models.NormalizeWhatsApp(fl.Field().String()))
		return n >= minWhatsAppDigits && n <= maxWhatsAppDigits
	})
	return v
}

// validationError turns the first validator failure into an OrderError that
// names the offending field by its JSON path.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, found := strings.Cut(field, "."); found {
		field = rest
	}
	if fe.Param() != "" {
		return newOrderError(KindValidation, "%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return newOrderError(KindValidation, "%s failed %s", field, fe.Tag())
}
