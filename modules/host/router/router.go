package router

import (
	"go-booking-api/core/middleware"
	"go-booking-api/modules/host/controller"

	"github.com/labstack/echo/v4"
)

type HostRouter struct {
	controller *controller.HostController
}

func NewHostRouter(controller *controller.HostController) *HostRouter {
	return &HostRouter{controller: controller}
}

func (r *HostRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	routes := e.Group("/api/v1/private/host")
	routes.Use(mw.AuthMiddleware())

	routes.GET("/booking-link", r.controller.GetBookingLink)
	routes.GET("/meeting-types", r.controller.ListMeetingTypes)
	routes.POST("/meeting-types", r.controller.CreateMeetingType)
}
