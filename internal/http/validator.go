package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"chessgame/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// requestFor picks the body type for a route; nil means no body.
func requestFor(method, path string) any {
	path = strings.TrimSuffix(path, "/")
	switch {
	case method == fiber.MethodPost && strings.HasSuffix(path, "/games"):
		return &core.CreateGameRequest{}
	case method == fiber.MethodPut && strings.HasSuffix(path, "/players"):
		return &core.ConfigurePlayersRequest{}
	case method == fiber.MethodPost && strings.HasSuffix(path, "/moves"):
		return &core.MoveRequest{}
	case method == fiber.MethodPost && strings.HasSuffix(path, "/undo"):
		return &core.UndoRequest{}
	}
	return nil
}

// validationMiddleware parses and validates request bodies before the
// handler runs; handlers read the result through validatedBody.
func validationMiddleware(c *fiber.Ctx) error {
	requestType := requestFor(c.Method(), c.Path())
	if requestType == nil {
		return c.Next()
	}

	// an empty undo body means "one move"
	if undo, ok := requestType.(*core.UndoRequest); ok && len(c.Body()) == 0 {
		undo.Count = 1
	} else if err := c.BodyParser(requestType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	if err := validate.Struct(requestType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: describeValidation(err),
		})
	}

	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)
	return c.Next()
}

// describeValidation turns validator errors into one readable line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	var details strings.Builder
	for _, fe := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		unit := ""
		if fe.Type().Kind() == reflect.String {
			unit = " characters"
		}
		switch fe.Tag() {
		case "required":
			fmt.Fprintf(&details, "%s is required", fe.Field())
		case "oneof":
			fmt.Fprintf(&details, "%s must be one of [%s]", fe.Field(), fe.Param())
		case "min":
			fmt.Fprintf(&details, "%s must be at least %s%s", fe.Field(), fe.Param(), unit)
		case "max":
			fmt.Fprintf(&details, "%s must be at most %s%s", fe.Field(), fe.Param(), unit)
		default:
			fmt.Fprintf(&details, "%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return details.String()
}

// validatedBody returns the body stored by validationMiddleware. A missing
// body means the route was registered without the middleware.
func validatedBody[T any](c *fiber.Ctx) (*T, error) {
	if validated, _ := c.Locals("validated").(bool); !validated {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "validation bypass detected")
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "validation data missing")
	}
	return body, nil
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
