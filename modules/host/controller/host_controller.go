package controller

import (
	"go-booking-api/core/controller"
	"go-booking-api/core/errors"
	"go-booking-api/modules/host/dto"
	"go-booking-api/modules/host/service"

	"github.com/labstack/echo/v4"
)

type HostController struct {
	controller.BaseController
	service service.HostServiceInterface
}

func NewHostController(svc service.HostServiceInterface) *HostController {
	return &HostController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// GetBookingLink GET /api/v1/private/host/booking-link
func (hc *HostController) GetBookingLink(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return hc.ErrorResponse(c, appErr)
	}

	link, appErr := hc.service.GetOrCreateBookingLink(c.Request().Context(), hostID)
	if appErr != nil {
		return hc.ErrorResponse(c, appErr)
	}
	return hc.SuccessResponse(c, link, "booking link fetched")
}

// ListMeetingTypes GET /api/v1/private/host/meeting-types
func (hc *HostController) ListMeetingTypes(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return hc.ErrorResponse(c, appErr)
	}

	types, appErr := hc.service.ListMeetingTypes(c.Request().Context(), hostID)
	if appErr != nil {
		return hc.ErrorResponse(c, appErr)
	}
	return hc.SuccessResponse(c, types, "meeting types fetched")
}

// CreateMeetingType POST /api/v1/private/host/meeting-types
func (hc *HostController) CreateMeetingType(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return hc.ErrorResponse(c, appErr)
	}

	var req dto.CreateMeetingTypeRequest
	if err := c.Bind(&req); err != nil {
		return hc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidRequestData, "invalid body", err))
	}

	mt, appErr := hc.service.CreateMeetingType(c.Request().Context(), hostID, &req)
	if appErr != nil {
		return hc.ErrorResponse(c, appErr)
	}
	return hc.CreatedResponse(c, mt, "meeting type created")
}
