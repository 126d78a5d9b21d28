package scoring

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/sqi/internal/model"
)

// ValidationError reports input that violates the attempt contract.
// Index is the position of the offending attempt, or -1 for problems with
// the record itself.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("attempt %d: %s %s", e.Index, e.Field, e.Reason)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func attemptValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by the names callers send them under.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks a StudentData record before scoring.
func Validate(data model.StudentData) error {
	if strings.TrimSpace(data.StudentID) == "" {
		return &ValidationError{Index: -1, Field: "student_id", Reason: "is required"}
	}
	if data.Attempts == nil {
		return &ValidationError{Index: -1, Field: "attempts", Reason: "must be a list"}
	}
	for i := range data.Attempts {
		if err := validateAttempt(i, data.Attempts[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAttempt(i int, a model.Attempt) error {
	err := attemptValidator().Struct(a)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate attempt %d: %w", i, err)
	}
	fe := fieldErrs[0]
	return &ValidationError{Index: i, Field: fe.Field(), Reason: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be less than " + fe.Param()
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	default:
		return "failed " + fe.Tag() + " check"
	}
}
