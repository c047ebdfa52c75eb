package model

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("maildomain", isMailDomain); err != nil {
		panic(err)
	}
	return v
}

// isMailDomain requires a dotted domain without a trailing dot.
func isMailDomain(fl validator.FieldLevel) bool {
	email := fl.Field().String()
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// validateStruct runs the validate tags of s and converts failures to a
// *ValidationError in field order.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	v := &ValidationError{}
	for _, fe := range fieldErrs {
		v.add(fe.Field(), fieldMessage(fe))
	}
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email", "maildomain":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// Validate trims the request in place and checks every field.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Nickname = strings.TrimSpace(r.Nickname)
	return validateStruct(r)
}

// Validate trims the email and requires both credentials.
func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

// Validate checks the award and fills in the default reason.
func (r *GiveEnergyRequest) Validate() error {
	r.TargetEmail = strings.TrimSpace(r.TargetEmail)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		r.Reason = defaultAwardReason
	}
	return validateStruct(r)
}

// Validate requires a target.
func (r *BanUserRequest) Validate() error {
	r.TargetEmail = strings.TrimSpace(r.TargetEmail)
	return validateStruct(r)
}

// ParseLogFilter builds a LogFilter from raw query values. An empty limit
// selects DefaultLogLimit; larger limits are capped at MaxLogLimit.
func ParseLogFilter(userID, limit string) (LogFilter, error) {
	f := LogFilter{Limit: DefaultLogLimit}
	v := &ValidationError{}

	if userID != "" {
		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil || id <= 0 {
			v.add("user_id", "must be a positive integer")
		}
		f.UserID = id
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			v.add("limit", "must be a positive integer")
		}
		f.Limit = min(n, MaxLogLimit)
	}

	if err := v.errOrNil(); err != nil {
		return LogFilter{}, err
	}
	return f, nil
}
