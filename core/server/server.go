package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-booking-api/core/cache"
	"go-booking-api/core/config"
	"go-booking-api/core/constants"
	"go-booking-api/core/database"
	"go-booking-api/core/logger"
	"go-booking-api/core/middleware"
	"go-booking-api/core/queue"
	"go-booking-api/core/utils"
	"go-booking-api/modules/availability"
	"go-booking-api/modules/booking"
	bookingRepository "go-booking-api/modules/booking/repository"
	"go-booking-api/modules/calendar"
	calendarRepository "go-booking-api/modules/calendar/repository"
	"go-booking-api/modules/host"
	"go-booking-api/modules/plan"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Run loads config, wires every module and serves until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	var (
		redisCache cache.Cache
		locker     cache.Locker = cache.NewLocalLocker()
		enqueuer   queue.Enqueuer
		worker     *queue.Server
	)
	redisCfg := queue.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if c, err := cache.NewRedisCache(cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}); err != nil {
		logger.Warn("Server:Run:Redis:Unavailable", "error", err, "fallback", "in-process locks, no retry queue")
	} else {
		redisCache = c
		locker = c
		defer c.Close()

		client := queue.NewClient(redisCfg)
		defer client.Close()
		enqueuer = client
		worker = queue.NewServer(redisCfg, cfg.Queue.Concurrency)
	}

	var cipher calendarRepository.TokenCipher
	if cfg.Security.TokenEncryptionKey != "" {
		sealer, err := utils.NewSealer(cfg.Security.TokenEncryptionKey)
		if err != nil {
			return fmt.Errorf("token encryption key: %w", err)
		}
		cipher = sealer
	} else {
		logger.Warn("Server:Run:TokenEncryption:Disabled", "reason", "SECURITY_TOKEN_ENCRYPTION_KEY not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = constants.DefaultTimeout
	e.Server.WriteTimeout = constants.DefaultTimeout
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(constants.ContextRequestID, id)
		},
	}))
	e.Use(echoMiddleware.CORS())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Server.Env != "production" {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	mw := middleware.NewMiddleware(cfg.JWT.Secret)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	availabilitySvc := availability.Init(e, db, mw)
	hostSvc := host.Init(e, db, mw)
	bookingRepo := bookingRepository.NewBookingRepository(db)
	quota := plan.Init(e, db, redisCache, mw, bookingRepo, cfg.ServerLocation())
	calendars := calendar.Init(e, db, mw, calendar.Options{
		Cipher:       cipher,
		Locker:       locker,
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		Gate:         quota,
	})
	booking.Init(e, mw, booking.Options{
		Repo:         bookingRepo,
		Hosts:        hostSvc,
		Availability: availabilitySvc,
		Quota:        quota,
		Calendar:     calendars,
		Locker:       locker,
		Enqueuer:     enqueuer,
		Worker:       worker,
		Limiter:      limiter,
	})

	if worker != nil {
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		defer worker.Shutdown()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server:Run:Listening", "addr", addr, "env", cfg.Server.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("Server:Run:Shutdown", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}
