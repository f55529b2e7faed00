package router

import (
	"go-booking-api/core/middleware"
	"go-booking-api/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	routes := e.Group("/api/v1/private/calendar")
	routes.Use(mw.AuthMiddleware())

	routes.GET("/connections", r.controller.GetConnections)
	routes.POST("/connections", r.controller.SaveConnection)
	routes.PUT("/connections/:key/default", r.controller.SetDefault)
	routes.DELETE("/connections/:key", r.controller.Disconnect)

	routes.GET("/busy", r.controller.GetBusy)
}
