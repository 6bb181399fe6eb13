package utils

import (
	"errors"
	"net/http"

	"farmcon/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes the success envelope.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, models.DataResponse{Data: payload})
}

// RespondWithError writes the error envelope.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Error: message})
}

// HandleServiceError maps service-layer sentinel errors onto HTTP statuses.
// Anything unrecognized is a 500; the detailed error is logged server-side
// and never leaked to the client.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "resource not found")
	case errors.Is(err, models.ErrConflict):
		return RespondWithError(c, http.StatusConflict, "resource already exists")
	case errors.Is(err, models.ErrInvalidCredentials):
		return RespondWithError(c, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, models.ErrPaymentNotCompleted):
		return RespondWithError(c, http.StatusPaymentRequired, "payment has not been completed")
	case errors.Is(err, models.ErrPaymentNotConfigured):
		return RespondWithError(c, http.StatusServiceUnavailable, "payments are not available")
	case errors.Is(err, models.ErrEmptyCart):
		return RespondWithError(c, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, models.ErrPaidCartMissing):
		// Money was captured with nothing to materialize; this needs an
		// operator, not a client retry.
		c.Logger().Error(err)
		return RespondWithError(c, http.StatusInternalServerError, "checkout could not be completed")
	case errors.Is(err, models.ErrInvalidStatusTransition):
		return RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrOutOfStock):
		return RespondWithError(c, http.StatusConflict, "not enough stock available")
	case errors.Is(err, models.ErrInvalidItemReference):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		c.Logger().Error(err)
		return RespondWithError(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
}
