package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/models"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)

// sourceQualified is implemented by payloads whose source needs a qualifier.
type sourceQualified interface {
	SourceFields() (source, otherSource, socialMediaChannel, referrerName string)
}

// NewLeadValidator returns a validator that reports json field names and knows the lead rules.
func NewLeadValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("lead_stage", func(fl validator.FieldLevel) bool {
		return models.LeadStage(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("date_string", func(fl validator.FieldLevel) bool {
		_, err := dto.ParseDate(fl.Field().String(), nil)
		return err == nil
	})
	validate.RegisterStructValidation(validateSource, dto.CreateLeadRequest{}, dto.UpdateLeadRequest{})
	return validate
}

func validateSource(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(sourceQualified)
	if !ok {
		return
	}
	source, other, social, referrer := req.SourceFields()
	switch source {
	case models.SourceOther:
		if other == "" {
			sl.ReportError(other, "otherSource", "OtherSource", "required_for_source", source)
		}
	case models.SourceSocialMedia:
		if social == "" {
			sl.ReportError(social, "socialMediaChannel", "SocialMediaChannel", "required_for_source", source)
		}
	case models.SourceReferral:
		if referrer == "" {
			sl.ReportError(referrer, "referrerName", "ReferrerName", "required_for_source", source)
		}
	}
}

// validationError converts validator output into a field-level validation error.
func validationError(err error, message string) *appErrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := appErrors.FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fieldPath(fe), fieldMessage(fe))
	}
	return appErrors.Validation(message, fields)
}

// fieldPath drops the root struct name from the namespace: phoneNumbers[0].number.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	// Embedded structs carry no json name of their own.
	return strings.TrimPrefix(ns, "LeadProfileInput.")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_for_source":
		return fmt.Sprintf("is required when source is %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "lead_stage":
		return "must be a valid stage"
	case "date_string":
		return "must be a valid date"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
