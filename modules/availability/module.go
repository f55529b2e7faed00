package availability

import (
	"go-booking-api/core/database"
	"go-booking-api/core/middleware"
	"go-booking-api/modules/availability/controller"
	"go-booking-api/modules/availability/repository"
	"go-booking-api/modules/availability/router"
	"go-booking-api/modules/availability/service"

	"github.com/labstack/echo/v4"
)

// Init wires the availability module and returns its service for other modules.
func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) *service.AvailabilityService {
	repo := repository.NewAvailabilityRepository(db)
	svc := service.NewAvailabilityService(repo)
	ctrl := controller.NewAvailabilityController(svc)

	router.NewAvailabilityRouter(ctrl).Setup(e, mw)
	return svc
}
