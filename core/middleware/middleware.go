package middleware

import (
	stderrors "errors"
	"strings"

	"go-booking-api/core/constants"
	"go-booking-api/core/controller"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	jwtSecret string
	base      controller.BaseController
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{
		jwtSecret: jwtSecret,
		base:      controller.NewBaseController(),
	}
}

// AuthMiddleware requires a valid Bearer token and stores its claims under
// constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return m.base.ErrorResponse(c, errors.NewAppError(errors.ErrMissingAuthorizationHeader, "missing authorization header", nil))
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return m.base.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid authorization header format", nil))
			}

			claims, err := utils.ValidateToken(parts[1], m.jwtSecret)
			if err != nil {
				logger.Warn("Middleware:AuthMiddleware:ValidateToken:Error", "error", err)
				if stderrors.Is(err, jwt.ErrTokenExpired) {
					return m.base.ErrorResponse(c, errors.NewAppError(errors.ErrTokenExpired, "token expired", err))
				}
				return m.base.ErrorResponse(c, errors.NewAppError(errors.ErrUnauthorized, "invalid token", err))
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}
