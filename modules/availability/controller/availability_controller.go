package controller

import (
	"go-booking-api/core/controller"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/modules/availability/dto"
	"go-booking-api/modules/availability/service"

	"github.com/labstack/echo/v4"
)

type AvailabilityController struct {
	controller.BaseController
	service service.AvailabilityServiceInterface
}

func NewAvailabilityController(svc service.AvailabilityServiceInterface) *AvailabilityController {
	return &AvailabilityController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// GetBlocks GET /api/v1/private/availability/blocks
func (ac *AvailabilityController) GetBlocks(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return ac.ErrorResponse(c, appErr)
	}

	blocks, appErr := ac.service.GetBlocks(c.Request().Context(), hostID)
	if appErr != nil {
		return ac.ErrorResponse(c, appErr)
	}
	return ac.SuccessResponse(c, blocks, "availability fetched")
}

// SaveBlocks PUT /api/v1/private/availability/blocks
func (ac *AvailabilityController) SaveBlocks(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return ac.ErrorResponse(c, appErr)
	}

	var req dto.SaveBlocksRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("AvailabilityController:SaveBlocks:Bind:Error", "error", err)
		return ac.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidRequestData, "invalid body", err))
	}

	blocks, appErr := ac.service.SaveBlocks(c.Request().Context(), hostID, &req)
	if appErr != nil {
		return ac.ErrorResponse(c, appErr)
	}
	return ac.SuccessResponse(c, blocks, "availability saved")
}
