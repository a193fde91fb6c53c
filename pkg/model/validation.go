package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

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
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors into a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "hhmm", validateHHMM)
		mustRegister(v, "weekday", validateWeekday)
		mustRegister(v, "session_type", validateSessionType)
		mustRegister(v, "slot_duration", validateSlotDuration)
		v.RegisterStructValidation(windowOrder, AvailabilityWindow{})
		v.RegisterStructValidation(classOrder, ClassRecord{})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validator: %v", tag, err))
	}
}

// Validate checks s against its struct tags and returns ValidationErrors on failure.
func Validate(s any) error {
	if err := instance().Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateVar checks a single value against a tag expression, reporting failures under field.
func ValidateVar(field string, value any, tag string) error {
	if err := instance().Var(value, tag); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			errs := translateValidationErrors(validationErrs)
			for i := range errs {
				errs[i].Field = field
			}
			return errs
		}
		return err
	}
	return nil
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	return Weekday(fl.Field().String()).Valid()
}

func validateSessionType(fl validator.FieldLevel) bool {
	return IsSessionType(fl.Field().String())
}

func validateSlotDuration(fl validator.FieldLevel) bool {
	return IsSupportedDuration(int(fl.Field().Int()))
}

// HH:MM strings compare correctly as text once the format is enforced.
func windowOrder(sl validator.StructLevel) {
	w := sl.Current().Interface().(AvailabilityWindow)
	if hhmmPattern.MatchString(w.StartTime) && hhmmPattern.MatchString(w.EndTime) && w.StartTime >= w.EndTime {
		sl.ReportError(w.EndTime, "end_time", "EndTime", "after_start", "")
	}
}

func classOrder(sl validator.StructLevel) {
	c := sl.Current().Interface().(ClassRecord)
	if hhmmPattern.MatchString(c.StartTime) && hhmmPattern.MatchString(c.EndTime) && c.StartTime >= c.EndTime {
		sl.ReportError(c.EndTime, "end_time", "EndTime", "after_start", "")
	}
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gte", "lte":
			message = fmt.Sprintf("%s is out of range", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "weekday":
			message = fmt.Sprintf("%s must be a lowercase weekday name", err.Field())
		case "session_type":
			message = fmt.Sprintf("%s must be %q or %q", err.Field(), SessionTypeOnline, SessionTypeInPerson)
		case "slot_duration":
			message = fmt.Sprintf("%s must be one of %v minutes", err.Field(), SessionDurations)
		case "after_start", "gtfield":
			message = fmt.Sprintf("%s must be after the start time", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
