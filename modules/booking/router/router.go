package router

import (
	"go-booking-api/core/middleware"
	"go-booking-api/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	controller *controller.BookingController
}

func NewBookingRouter(ctrl *controller.BookingController) *BookingRouter {
	return &BookingRouter{controller: ctrl}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware, limiter *middleware.RateLimiter) {
	public := e.Group("/api/v1/public/booking/:slug")
	if limiter != nil {
		public.Use(limiter.Limit())
	}
	public.GET("/dates", r.controller.PublicDates)
	public.GET("/slots", r.controller.PublicSlots)
	public.GET("/quota", r.controller.PublicQuota)
	public.GET("/meeting-types", r.controller.PublicMeetingTypes)
	public.POST("/schedule", r.controller.PublicSchedule)

	private := e.Group("/api/v1/private/booking")
	private.Use(mw.AuthMiddleware())
	private.GET("", r.controller.ListBookings)
	private.DELETE("/:id", r.controller.CancelBooking)
	private.POST("/reconcile", r.controller.Reconcile)
}
