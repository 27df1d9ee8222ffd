package services

import (
	stderrors "errors"
	"fmt"
	"timeline/domain"
	"timeline/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateCreatePost reports the first violated rule, walking fields in
// declaration order: author presence, content presence, content length.
// The length rule counts code points, not bytes.
func ValidateCreatePost(cmd domain.CreatePostCommand) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return fmt.Errorf("validate post: %w", err)
	}
	switch fieldErrors[0].Tag() {
	case "required":
		return errors.ErrAuthorAndContentRequired
	case "max":
		return errors.ErrContentTooLong
	default:
		return fmt.Errorf("validate post: %w", err)
	}
}
