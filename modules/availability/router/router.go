package router

import (
	"go-booking-api/core/middleware"
	"go-booking-api/modules/availability/controller"

	"github.com/labstack/echo/v4"
)

type AvailabilityRouter struct {
	controller *controller.AvailabilityController
}

func NewAvailabilityRouter(controller *controller.AvailabilityController) *AvailabilityRouter {
	return &AvailabilityRouter{
		controller: controller,
	}
}

func (r *AvailabilityRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Private routes (require authentication)
	routes := v1.Group("/private/availability")
	routes.Use(mw.AuthMiddleware())

	routes.GET("/blocks", r.controller.GetBlocks)
	routes.PUT("/blocks", r.controller.SaveBlocks)
}
