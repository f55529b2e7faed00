package router

import (
	"go-booking-api/core/middleware"
	"go-booking-api/modules/plan/controller"

	"github.com/labstack/echo/v4"
)

type PlanRouter struct {
	controller *controller.PlanController
}

func NewPlanRouter(controller *controller.PlanController) *PlanRouter {
	return &PlanRouter{controller: controller}
}

func (r *PlanRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	routes := e.Group("/api/v1/private/plan")
	routes.Use(mw.AuthMiddleware())

	routes.GET("/quota", r.controller.GetQuota)
}
