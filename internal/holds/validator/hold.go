package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"brokerage/internal/holds/policy"
	"brokerage/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

// Details renders the errors as a field to message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, e := range v {
		details[e.Field] = e.Message
	}
	return details
}

type HoldValidator struct {
	validate *validator.Validate
}

func NewHoldValidator() *HoldValidator {
	v := validator.New()

	// Report json names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("hold_status", func(fl validator.FieldLevel) bool {
		s := model.HoldStatus(fl.Field().String())
		return s == "" || s.IsValid()
	})

	return &HoldValidator{validate: v}
}

func (v *HoldValidator) ValidateCreate(dto *model.CreatePropertyHoldDto) error {
	return v.check(dto)
}

func (v *HoldValidator) ValidateExtend(dto *model.ExtendPropertyHoldDto) error {
	return v.check(dto)
}

func (v *HoldValidator) ValidateCancel(dto *model.CancelPropertyHoldDto) error {
	return v.check(dto)
}

func (v *HoldValidator) ValidateAutoCancel(dto *model.AutoCancelPropertyHoldDto) error {
	return v.check(dto)
}

func (v *HoldValidator) ValidateConfig(cfg *policy.HoldConfig) error {
	return v.check(cfg)
}

type filterInput struct {
	CtvID      string `json:"ctvId" validate:"omitempty,max=64"`
	PropertyID string `json:"propertyId" validate:"omitempty,max=64"`
	Status     string `json:"status" validate:"hold_status"`
}

func (v *HoldValidator) ValidateFilter(f model.HoldFilter) error {
	return v.check(&filterInput{CtvID: f.CtvID, PropertyID: f.PropertyID, Status: string(f.Status)})
}

func (v *HoldValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: messageFor(err),
		})
	}

	return validationErrors
}

func messageFor(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "max":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", err.Param())
		}
		return fmt.Sprintf("must be at most %s", err.Param())
	case "min":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "hold_status":
		return "must be one of ACTIVE, EXPIRED, CANCELLED, CANCELLED_BY_ADMIN, AUTO_CANCELLED"
	default:
		return fmt.Sprintf("failed %q validation", err.Tag())
	}
}
