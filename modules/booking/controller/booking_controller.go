package controller

import (
	"strings"
	"time"

	"go-booking-api/core/controller"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/core/utils"
	"go-booking-api/modules/booking/dto"
	"go-booking-api/modules/booking/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	service service.BookingServiceInterface
}

func NewBookingController(svc service.BookingServiceInterface) *BookingController {
	return &BookingController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

func availabilityQuery(c echo.Context) service.AvailabilityQuery {
	return service.AvailabilityQuery{
		From:            c.QueryParam("from"),
		To:              c.QueryParam("to"),
		Date:            c.QueryParam("date"),
		DurationMinutes: utils.ToNumberWithDefault(c.QueryParam("duration"), 0),
		MeetingTypeID:   c.QueryParam("meeting_type"),
		Timezone:        c.QueryParam("tz"),
	}
}

// PublicDates GET /api/v1/public/booking/:slug/dates?from&to&duration&meeting_type&tz
// @Summary Available dates
// @Description Days in [from, to] with at least one free slot. Empty when the host is fully booked.
// @Tags Booking
// @Produce json
// @Param slug path string true "Host booking slug"
// @Param from query string false "YYYY-MM-DD, default today"
// @Param to query string false "YYYY-MM-DD inclusive, default from+29d"
// @Param duration query int false "Slot minutes"
// @Param meeting_type query string false "Meeting type id"
// @Param tz query string false "IANA timezone of the viewer"
// @Success 200 {object} dto.AvailableDatesResponse
// @Failure 404 {object} errors.AppError
// @Router /public/booking/{slug}/dates [get]
func (bc *BookingController) PublicDates(c echo.Context) error {
	resp, appErr := bc.service.ListAvailableDates(c.Request().Context(), c.Param("slug"), availabilityQuery(c))
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, resp, "available dates fetched")
}

// PublicSlots GET /api/v1/public/booking/:slug/slots?date&duration&meeting_type&tz
// @Summary Available slots
// @Tags Booking
// @Produce json
// @Param slug path string true "Host booking slug"
// @Param date query string true "YYYY-MM-DD"
// @Param duration query int false "Slot minutes"
// @Param meeting_type query string false "Meeting type id"
// @Param tz query string false "IANA timezone of the viewer"
// @Success 200 {object} dto.AvailableSlotsResponse
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /public/booking/{slug}/slots [get]
func (bc *BookingController) PublicSlots(c echo.Context) error {
	resp, appErr := bc.service.ListAvailableSlots(c.Request().Context(), c.Param("slug"), availabilityQuery(c))
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, resp, "available slots fetched")
}

// PublicQuota GET /api/v1/public/booking/:slug/quota
// @Summary Host booking quota
// @Tags Booking
// @Produce json
// @Param slug path string true "Host booking slug"
// @Success 200 {object} entity.PlanQuota
// @Router /public/booking/{slug}/quota [get]
func (bc *BookingController) PublicQuota(c echo.Context) error {
	quota, appErr := bc.service.GetQuotaStatus(c.Request().Context(), c.Param("slug"))
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, quota, "quota fetched")
}

// PublicMeetingTypes GET /api/v1/public/booking/:slug/meeting-types
func (bc *BookingController) PublicMeetingTypes(c echo.Context) error {
	types, appErr := bc.service.ListMeetingTypes(c.Request().Context(), c.Param("slug"))
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, types, "meeting types fetched")
}

// PublicSchedule POST /api/v1/public/booking/:slug/schedule
// @Summary Book a slot
// @Tags Booking
// @Accept json
// @Produce json
// @Param slug path string true "Host booking slug"
// @Param body body dto.CreateBookingRequest true "Guest and slot"
// @Success 201 {object} dto.BookingResponse
// @Failure 400 {object} errors.AppError
// @Failure 409 {object} errors.AppError "quota exceeded or slot taken"
// @Router /public/booking/{slug}/schedule [post]
func (bc *BookingController) PublicSchedule(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("BookingController:PublicSchedule:Bind:Error", "error", err)
		return bc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidRequestData, "invalid body", err))
	}

	var errs []controller.ValidationError
	if strings.TrimSpace(req.StartTime) == "" {
		errs = append(errs, controller.NewValidationError("start_time", "start_time is required"))
	}
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, controller.NewValidationError("name", "name is required"))
	}
	if !utils.IsValidEmail(req.Email) {
		errs = append(errs, controller.NewValidationError("email", "a valid email is required"))
	}
	if len(errs) > 0 {
		return bc.ValidationErrorResponse(c, errs)
	}

	booking, appErr := bc.service.CreateBooking(c.Request().Context(), c.Param("slug"), &req)
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.CreatedResponse(c, booking, "booking confirmed")
}

// ListBookings GET /api/v1/private/booking?from&to (RFC3339, default next 30 days)
// @Summary List the host's bookings
// @Tags Booking
// @Security BearerAuth
// @Produce json
// @Param from query string false "RFC3339"
// @Param to query string false "RFC3339"
// @Success 200 {array} dto.BookingResponse
// @Failure 401 {object} errors.AppError
// @Router /private/booking [get]
func (bc *BookingController) ListBookings(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}

	from := time.Now()
	to := from.AddDate(0, 0, 30)
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return bc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidInput, "from must be RFC3339", err))
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return bc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidInput, "to must be RFC3339", err))
		}
		to = t
	}

	bookings, appErr := bc.service.ListHostBookings(c.Request().Context(), hostID, from, to)
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, bookings, "bookings fetched")
}

// CancelBooking DELETE /api/v1/private/booking/:id
// @Summary Cancel a booking
// @Tags Booking
// @Security BearerAuth
// @Param id path string true "Booking id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.AppError
// @Router /private/booking/{id} [delete]
func (bc *BookingController) CancelBooking(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	id, ok := utils.TryParseUUID(c.Param("id"))
	if !ok {
		return bc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidInput, "invalid booking id", nil))
	}

	if appErr := bc.service.CancelBooking(c.Request().Context(), hostID, id); appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, nil, "booking cancelled")
}

// Reconcile POST /api/v1/private/booking/reconcile
func (bc *BookingController) Reconcile(c echo.Context) error {
	hostID, appErr := controller.UserIDFromContext(c)
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}

	var req dto.ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return bc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidRequestData, "invalid body", err))
	}
	ids := make([]uuid.UUID, 0, len(req.BookingIDs))
	for _, raw := range req.BookingIDs {
		id, ok := utils.TryParseUUID(raw)
		if !ok {
			return bc.ErrorResponse(c, errors.NewAppError(errors.ErrInvalidInput, "invalid booking id: "+raw, nil))
		}
		ids = append(ids, id)
	}

	results, appErr := bc.service.ReconcileBookings(c.Request().Context(), hostID, ids)
	if appErr != nil {
		return bc.ErrorResponse(c, appErr)
	}
	return bc.SuccessResponse(c, results, "bookings reconciled")
}
