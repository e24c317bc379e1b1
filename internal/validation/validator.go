package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/models"
)

// Validator validates request structs
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a new validator. Field names in messages follow the
// json tag.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("vehicletype", func(fl validator.FieldLevel) bool {
		switch models.VehicleType(fl.Field().String()) {
		case "", models.VehicleCar, models.VehicleBike, models.VehicleTruck, models.VehicleOther:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("usertype", func(fl validator.FieldLevel) bool {
		switch models.UserType(fl.Field().String()) {
		case "", models.UserTypeVisitor, models.UserTypeStaff, models.UserTypeTenant, models.UserTypeVendor:
			return true
		}
		return false
	})
	return &Validator{v: v}
}

// Validate validates a struct. Failures come back as apperr validation
// errors naming every offending field.
func (v *Validator) Validate(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Validation("invalid input")
	}

	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, describe(fe))
	}
	sort.Strings(fields)
	return apperr.Validation("%s", strings.Join(fields, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
