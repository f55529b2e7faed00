package booking

import (
	"go-booking-api/core/cache"
	"go-booking-api/core/middleware"
	"go-booking-api/core/queue"
	"go-booking-api/modules/booking/controller"
	"go-booking-api/modules/booking/repository"
	"go-booking-api/modules/booking/router"
	"go-booking-api/modules/booking/service"
	"go-booking-api/modules/booking/worker"
	calendarModule "go-booking-api/modules/calendar"

	"github.com/labstack/echo/v4"
)

type Options struct {
	Repo         repository.BookingRepositoryInterface
	Hosts        service.HostDirectory
	Availability service.AvailabilitySource
	Quota        service.QuotaSource
	Calendar     *calendarModule.Module
	Locker       cache.Locker
	Enqueuer     queue.Enqueuer
	Worker       *queue.Server
	Limiter      *middleware.RateLimiter
}

func Init(e *echo.Echo, mw *middleware.Middleware, opts Options) *service.BookingService {
	var retries service.RemoteDeleteScheduler
	if opts.Enqueuer != nil {
		retries = worker.NewScheduler(opts.Enqueuer)
	}

	svc := service.NewBookingService(service.Deps{
		Repo:         opts.Repo,
		Hosts:        opts.Hosts,
		Availability: opts.Availability,
		Quota:        opts.Quota,
		Calendars:    opts.Calendar.Service,
		Busy:         opts.Calendar.Busy,
		Clients:      opts.Calendar.Tokens,
		Retries:      retries,
		Locker:       opts.Locker,
	})

	if opts.Worker != nil {
		worker.Register(opts.Worker, worker.NewHandler(opts.Calendar.Service, opts.Calendar.Tokens))
	}

	ctrl := controller.NewBookingController(svc)
	router.NewBookingRouter(ctrl).Setup(e, mw, opts.Limiter)
	return svc
}
