package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/urbankisan/backend-go/services"
)

// CustomValidator plugs go-playground/validator into Echo so handlers can
// call c.Validate on bound request payloads.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

func serviceError(c echo.Context, err *services.ServiceError) error {
	return c.JSON(err.StatusCode, map[string]string{"message": err.Message})
}
