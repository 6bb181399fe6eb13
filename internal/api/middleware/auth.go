package middleware

import (
	"errors"
	"net/http"

	"farmcon/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuth configures Echo's JWT middleware. On success the custom claims are
// copied into the context under userID, userEmail and userRole, which is what
// the handlers read.
func JWTAuth(jwtSecretKey string) echo.MiddlewareFunc {
	config := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.JwtCustomClaims)
		},
		SigningKey: []byte(jwtSecretKey),
		SuccessHandler: func(c echo.Context) {
			userToken := c.Get("user").(*jwt.Token)
			claims := userToken.Claims.(*models.JwtCustomClaims)

			c.Set("userID", claims.UserID)
			c.Set("userEmail", claims.Email)
			c.Set("userRole", claims.Role)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Errorf("JWT Error: %v", err)

			switch {
			case errors.Is(err, echojwt.ErrJWTMissing):
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Missing or malformed JWT"})
			case errors.Is(err, jwt.ErrTokenMalformed):
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Token is malformed"})
			case errors.Is(err, jwt.ErrTokenExpired):
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Token has expired"})
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid token signature"})
			}
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid or expired JWT"})
		},
	}
	return echojwt.WithConfig(config)
}

// RoleRequired allows only the listed roles past. It must run after JWTAuth.
// Admins always pass.
func RoleRequired(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("userRole").(string)
			if !ok {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
			}
			if role == models.RoleAdmin {
				return next(c)
			}
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Insufficient permissions"})
			}
			return next(c)
		}
	}
}

// AdminRequired restricts a route to administrators.
func AdminRequired() echo.MiddlewareFunc {
	return RoleRequired(models.RoleAdmin)
}
