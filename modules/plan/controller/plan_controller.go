package controller

import (
	"go-booking-api/core/controller"
	"go-booking-api/modules/plan/service"

	"github.com/labstack/echo/v4"
)

type PlanController struct {
	controller.BaseController
	quota service.QuotaTrackerInterface
}

func NewPlanController(quota service.QuotaTrackerInterface) *PlanController {
	return &PlanController{
		BaseController: controller.NewBaseController(),
		quota:          quota,
	}
}

// GetQuota GET /api/v1/private/plan/quota
func (pc *PlanController) GetQuota(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return pc.ErrorResponse(c, appErr)
	}

	quota, appErr := pc.quota.GetQuotaStatus(c.Request().Context(), hostID)
	if appErr != nil {
		return pc.ErrorResponse(c, appErr)
	}
	return pc.SuccessResponse(c, quota, "quota fetched")
}
