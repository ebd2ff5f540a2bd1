package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func reviewValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Completion moves in steps of five.
		_ = validate.RegisterValidation("step5", func(fl validator.FieldLevel) bool {
			return fl.Field().Int()%5 == 0
		})
	})
	return validate
}

// ValidateReview checks a review against the data model constraints.
func ValidateReview(r *Review) error {
	if r == nil {
		return errors.New("review is nil")
	}
	err := reviewValidator().Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate review: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid review: %s", strings.Join(msgs, "; "))
}
