package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var validate = validator.New() //nolint:gochecknoglobals

// Validate checks the validate tags of v and returns a 400 error naming the first failing field.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, ValidationMessage(verrs[0]))
	}

	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

// ValidationMessage formats a single field error.
func ValidationMessage(fe validator.FieldError) string {
	return fmt.Sprintf("Field '%s' failed validation tag '%s'", fe.Field(), fe.Tag())
}

// Parse binds the json or form body into out and validates it.
func Parse(c fiber.Ctx, out interface{}) error {
	if err := c.Bind().WithoutAutoHandling().Body(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	return Validate(out)
}
