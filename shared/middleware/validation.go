package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tradeguard/platform/shared/apperrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	customMu     sync.Mutex
	customRules  = map[string]validator.Func{
		"iso_date": validateISODate,
	}
)

// InitValidator initializes the standalone validator and gin's binding
// validator with the same custom rules and JSON field naming.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		configure(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			configure(v)
		}
	})

	return validate
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

// RegisterValidation adds a service-specific rule (e.g. "country") to both
// validators. It must be called before the router starts serving.
func RegisterValidation(tag string, fn validator.Func) error {
	InitValidator()

	customMu.Lock()
	defer customMu.Unlock()
	customRules[tag] = fn

	if err := validate.RegisterValidation(tag, fn); err != nil {
		return err
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation(tag, fn)
	}
	return nil
}

func configure(v *validator.Validate) {
	for tag, fn := range customRules {
		_ = v.RegisterValidation(tag, fn)
	}
	v.RegisterTagNameFunc(fieldName)
}

// fieldName reports json names, then form names, so error details use the
// keys the client sent.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}

// ValidationErrorFormatter formats validation errors into a map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}

	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "iso_date":
		return "must be a date in YYYY-MM-DD format"
	case "country":
		return "must be one of: IN, EU, UK, US"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the JSON body into obj and validates it.
func BindAndValidate(c *gin.Context, obj any) *apperrors.AppError {
	InitValidator()
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return apperrors.ErrValidationWithFields("Missing or invalid fields", ValidationErrorFormatter(validationErrors))
		}
		return apperrors.ErrBadRequest("Invalid request body")
	}
	return nil
}

// ValidateStruct validates a struct using the validator
func ValidateStruct(obj any) *apperrors.AppError {
	v := GetValidator()
	if err := v.Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return apperrors.ErrValidationWithFields("Missing or invalid fields", ValidationErrorFormatter(validationErrors))
		}
		return apperrors.ErrBadRequest("validation failed: " + err.Error())
	}
	return nil
}
