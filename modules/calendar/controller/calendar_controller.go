package controller

import (
	"time"

	"go-booking-api/core/controller"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/modules/calendar/dto"
	"go-booking-api/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	service service.CalendarServiceInterface
}

func NewCalendarController(svc service.CalendarServiceInterface) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// GetConnections GET /api/v1/private/calendar/connections
func (cc *CalendarController) GetConnections(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}

	resp, appErr := cc.service.ListConnections(c.Request().Context(), hostID)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}
	return cc.SuccessResponse(c, resp, "connections fetched")
}

// SaveConnection POST /api/v1/private/calendar/connections
// @Summary Store a connected calendar account
// @Tags Calendar
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.SaveConnectionRequest true "Tokens from the consent exchange"
// @Success 201 {object} dto.ConnectionResponse
// @Failure 409 {object} errors.AppError "plan calendar limit"
// @Router /private/calendar/connections [post]
func (cc *CalendarController) SaveConnection(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}

	var req dto.SaveConnectionRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("CalendarController:SaveConnection:Bind:Error", "error", err)
		return cc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidRequestData, "invalid body", err))
	}

	resp, appErr := cc.service.SaveConnection(c.Request().Context(), hostID, &req)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}
	return cc.CreatedResponse(c, resp, "calendar connected")
}

// SetDefault PUT /api/v1/private/calendar/connections/:key/default
func (cc *CalendarController) SetDefault(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}

	if appErr := cc.service.SetDefault(c.Request().Context(), hostID, c.Param("key")); appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}
	return cc.SuccessResponse(c, nil, "default calendar updated")
}

// Disconnect DELETE /api/v1/private/calendar/connections/:key
// @Summary Disconnect a calendar account
// @Description Revokes the grant and removes the account. The oldest remaining account becomes default.
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Param key path string true "Account key"
// @Success 200 {object} dto.DisconnectResponse
// @Failure 404 {object} errors.AppError
// @Router /private/calendar/connections/{key} [delete]
func (cc *CalendarController) Disconnect(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}

	resp, appErr := cc.service.Disconnect(c.Request().Context(), hostID, c.Param("key"))
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}
	return cc.SuccessResponse(c, resp, "calendar disconnected")
}

// GetBusy GET /api/v1/private/calendar/busy?from=...&to=...
func (cc *CalendarController) GetBusy(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}

	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return cc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidInput, "from must be RFC3339", err))
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return cc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidInput, "to must be RFC3339", err))
	}

	busy, appErr := cc.service.GetBusy(c.Request().Context(), hostID, from, to)
	if appErr != nil {
		return cc.ErrorResponse(c, appErr)
	}
	return cc.SuccessResponse(c, busy, "busy times fetched")
}
