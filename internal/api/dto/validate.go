package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation and maps failures to a validation
// error listing the offending fields.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	details := map[string]any{}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fmt.Sprintf("failed %s validation", fe.Tag())
		fields = append(fields, fe.Field())
	}
	return apperrors.NewValidationError("invalid fields: "+strings.Join(fields, ", "), details)
}
