package utils

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/errors"
)

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's binding engine.
//
//	permission_code  value is a catalog permission
//	role             value parses as a Role
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
		_ = v.RegisterValidation("permission_code", validatePermissionCode)
		_ = v.RegisterValidation("role", validateRole)
	})
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validatePermissionCode(fl validator.FieldLevel) bool {
	return permission.IsKnown(permission.Permission(fl.Field().String()))
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := authorization.ParseRole(fl.Field().String())
	return err == nil
}

// BindingError turns a ShouldBind error into a validation AppError with
// one message per failed field.
func BindingError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return errors.NewValidationError("Invalid request body", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, getFieldErrorMessage(fe))
	}
	return errors.NewValidationError("Validation failed", strings.Join(messages, "; "))
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "permission_code":
		return fmt.Sprintf("%s must be a known permission, got %q", field, fe.Value())
	case "role":
		return fmt.Sprintf("%s must be one of ADMIN, MODERATOR, USER", field)
	default:
		return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
	}
}
