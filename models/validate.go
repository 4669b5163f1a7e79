package models

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-backend/errs"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var indexPattern = regexp.MustCompile(`\[\d+\]`)

const dateLayout = "2006-01-02"

var validate = newValidator()

// newValidator reports fields by their JSON names and knows the slug format.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// checkStruct runs the validate tags of in and reports the first failure as a
// field error.
func checkStruct(in any) error {
	err := validate.Struct(in)
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}
	return fieldError(invalid[0])
}

func fieldError(fe validator.FieldError) error {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Array {
			return errs.NewInvalidFieldError(field, "must reference an existing record")
		}
		return errs.NewMissingRequiredFieldError(field)
	case "max":
		return errs.NewInvalidFieldError(field, "must be at most "+fe.Param()+" characters")
	case "gte":
		return errs.NewInvalidFieldError(field, "must be "+fe.Param()+" or greater")
	case "lte":
		return errs.NewInvalidFieldError(field, "must be "+fe.Param()+" or less")
	case "http_url":
		return errs.NewInvalidFieldError(field, "must be a valid URL")
	case "slug":
		return errs.NewInvalidFieldError(field, "must contain only lowercase letters, numbers and single hyphens")
	}
	return errs.NewInvalidFieldError(field, "failed the "+fe.Tag()+" check")
}

// fieldPath turns "ProjectInput.metrics[0].label" into "metrics.label".
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}
	return indexPattern.ReplaceAllString(path, "")
}

func trimText(value *string) {
	*value = strings.TrimSpace(*value)
}

// trimOptional trims value and collapses an empty string to nil.
func trimOptional(value **string) {
	if *value == nil {
		return
	}
	trimmed := strings.TrimSpace(**value)
	if trimmed == "" {
		*value = nil
		return
	}
	*value = &trimmed
}

func maxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return errs.NewInvalidFieldError(field, "must be at most "+strconv.Itoa(max)+" characters")
	}
	return nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(field, raw string) (datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return datatypes.Date{}, errs.NewMissingRequiredFieldError(field)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return datatypes.Date(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return datatypes.Date(t), nil
	}
	return datatypes.Date{}, errs.NewInvalidFieldError(field, "must be a date formatted as YYYY-MM-DD")
}

func parseOptionalDate(field string, raw *string) (*datatypes.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// dateRange checks an optional end date does not precede its start date.
func dateRange(field string, start datatypes.Date, end *datatypes.Date) error {
	if end != nil && time.Time(*end).Before(time.Time(start)) {
		return errs.NewInvalidFieldError(field, "must not be before the start date")
	}
	return nil
}
