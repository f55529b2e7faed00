package host

import (
	"go-booking-api/core/database"
	"go-booking-api/core/middleware"
	"go-booking-api/modules/host/controller"
	"go-booking-api/modules/host/repository"
	"go-booking-api/modules/host/router"
	"go-booking-api/modules/host/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) *service.HostService {
	repo := repository.NewHostRepository(db)
	svc := service.NewHostService(repo)
	ctrl := controller.NewHostController(svc)

	router.NewHostRouter(ctrl).Setup(e, mw)
	return svc
}
