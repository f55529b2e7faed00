package plan

import (
	"time"

	"go-booking-api/core/cache"
	"go-booking-api/core/database"
	"go-booking-api/core/middleware"
	"go-booking-api/modules/plan/controller"
	"go-booking-api/modules/plan/repository"
	"go-booking-api/modules/plan/router"
	"go-booking-api/modules/plan/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, c cache.Cache, mw *middleware.Middleware, bookings service.BookingCounter, loc *time.Location) *service.QuotaTracker {
	var plans repository.PlanRepositoryInterface = repository.NewPlanRepository(db)
	if c != nil {
		plans = repository.NewCachedPlanRepository(plans, c)
	}
	tracker := service.NewQuotaTracker(plans, bookings, loc)
	ctrl := controller.NewPlanController(tracker)

	router.NewPlanRouter(ctrl).Setup(e, mw)
	return tracker
}
