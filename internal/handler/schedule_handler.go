package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
	"github.com/theraloop/theraloop-backend/pkg/utils"
)

type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	validator       *utils.Validator
}

func NewScheduleHandler(scheduleService *service.ScheduleService, validator *utils.Validator) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		validator:       validator,
	}
}

func (h *ScheduleHandler) GetAppointmentTypes(c *fiber.Ctx) error {
	types, err := h.scheduleService.GetAppointmentTypes(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse("Could not load appointment types"))
	}

	return c.JSON(models.SuccessResponse(types, "Appointment types retrieved"))
}

func (h *ScheduleHandler) GetCalendars(c *fiber.Ctx) error {
	calendars, err := h.scheduleService.GetCalendars(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse("Could not load calendars"))
	}

	return c.JSON(models.SuccessResponse(calendars, "Calendars retrieved"))
}

func (h *ScheduleHandler) GetAvailableDates(c *fiber.Ctx) error {
	var req models.AvailableDatesRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("appointmentTypeID and month (YYYY-MM) are required"))
	}

	dates, err := h.scheduleService.GetAvailableDates(c.Context(), req.AppointmentTypeID, req.Month, req.CalendarID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse("Could not load availability"))
	}

	return c.JSON(models.SuccessResponse(dates, "Available dates retrieved"))
}

func (h *ScheduleHandler) GetAvailableTimes(c *fiber.Ctx) error {
	var req models.AvailableTimesRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("appointmentTypeID and date (YYYY-MM-DD) are required"))
	}

	times, err := h.scheduleService.GetAvailableTimes(c.Context(), req.AppointmentTypeID, req.Date, req.CalendarID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse("Could not load availability"))
	}

	return c.JSON(models.SuccessResponse(times, "Available times retrieved"))
}
