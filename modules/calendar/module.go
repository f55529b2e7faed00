package calendar

import (
	"go-booking-api/core/cache"
	"go-booking-api/core/database"
	"go-booking-api/core/middleware"
	"go-booking-api/modules/calendar/controller"
	"go-booking-api/modules/calendar/repository"
	"go-booking-api/modules/calendar/router"
	"go-booking-api/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type Options struct {
	Cipher       repository.TokenCipher
	Locker       cache.Locker
	ClientID     string
	ClientSecret string
	Gate         service.ConnectionGate
}

// Module exposes what the booking flow needs from connected calendars.
type Module struct {
	Service *service.CalendarService
	Tokens  *service.TokenManager
	Busy    *service.BusyTimeProvider
}

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, opts Options) *Module {
	repo := repository.NewAccountRepository(db, opts.Cipher)
	tokens := service.NewTokenManager(repo, service.NewGoogleRefresher(opts.ClientID, opts.ClientSecret), service.NewGoogleCalendar, opts.Locker)
	busy := service.NewBusyTimeProvider(tokens)
	svc := service.NewCalendarService(repo, opts.Gate, service.NewGoogleRevoker(), busy)

	ctrl := controller.NewCalendarController(svc)
	router.NewCalendarRouter(ctrl).Setup(e, mw)

	return &Module{Service: svc, Tokens: tokens, Busy: busy}
}
