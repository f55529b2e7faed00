package controller

import (
	"go-booking-api/core/constants"
	"go-booking-api/core/errors"
	"go-booking-api/core/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserIDFromContext extracts the authenticated host id set by AuthMiddleware.
func UserIDFromContext(c echo.Context) (uuid.UUID, *errors.AppError) {
	tokenData := c.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok || claims.UserID == uuid.Nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}
