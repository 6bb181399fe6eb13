package utils

import (
	"net/http"

	"farmcon/internal/models"

	"github.com/labstack/echo/v4"
)

// ExtractUserInfo pulls the authenticated user's id and role out of the echo
// context, where the JWT middleware placed them. Handlers behind the auth
// middleware can rely on the returned error already being a JSON response.
func ExtractUserInfo(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get("userID").(string)
	role, _ = c.Get("userRole").(string)
	if userID == "" {
		return "", "", c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authentication"})
	}
	return userID, role, nil
}
