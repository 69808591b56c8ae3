package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"ai-chat-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into the
// InvalidInput error kind so the error middleware answers with a 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			messages := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				messages = append(messages, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return apperror.InvalidInput(strings.Join(messages, "; "))
		}
		return apperror.InvalidInput(err.Error())
	}
	return nil
}
