package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Guyuepp/go-comment-engine/domain"
	govalidator "github.com/go-playground/validator/v10"
)

var validate = govalidator.New(govalidator.WithRequiredStructEnabled())

// ValidateStruct validates an operation input struct against its validate
// tags and maps failures to the domain taxonomy: one FieldViolation per
// offending field, status 400 downstream.
func ValidateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs govalidator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError means the input was not a struct at all,
		// which is a programming error, not caller input.
		return err
	}

	violations := make([]domain.FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, domain.FieldViolation{
			Field:  fieldPath(fe),
			Kind:   domain.KindBadField,
			Reason: fieldReason(fe),
		})
	}
	return &domain.ValidationError{Violations: violations}
}

// fieldPath drops the root struct name from the namespace and lowercases the
// leading letter of each segment, so "ListInput.Limit" reads as "limit".
func fieldPath(fe govalidator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	segs := strings.Split(ns, ".")
	for i, s := range segs {
		if s != "" {
			segs[i] = strings.ToLower(s[:1]) + s[1:]
		}
	}
	return strings.Join(segs, ".")
}

func fieldReason(fe govalidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}
