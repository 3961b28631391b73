package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/utils"
	"studynotes/cmd/internal/utils/apierror"
)

// NewAuthMiddleware verifies the bearer token against the Cognito JWKS and
// puts the authenticated user on the request context. Identity lives entirely
// in the token claims, there is no local user table to consult.
func NewAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenData, err := utils.ParseTokenDataCtx(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
			}

			user := &entity.User{
				UID:   tokenData.Sub,
				Email: tokenData.Email,
				Name:  tokenData.Name,
			}

			c.Set("user", user)
			c.Set("sub", tokenData.Sub)
			return next(c)
		}
	}
}
