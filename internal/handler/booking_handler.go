package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/theraloop/theraloop-backend/internal/controller"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
	"github.com/theraloop/theraloop-backend/pkg/utils"
)

type BookingHandler struct {
	bookingController *controller.BookingController
	validator         *utils.Validator
}

func NewBookingHandler(bookingController *controller.BookingController, validator *utils.Validator) *BookingHandler {
	return &BookingHandler{
		bookingController: bookingController,
		validator:         validator,
	}
}

func (h *BookingHandler) BookWithPackage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.BookWithPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	result, err := h.bookingController.BookWithPackage(c.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPackageNotOwned):
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse(err.Error()))
		case errors.Is(err, service.ErrNoSessionsRemaining), errors.Is(err, service.ErrPackageExpired):
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse("Booking could not be completed, please try another time slot"))
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(result, "Session booked"))
}

func (h *BookingHandler) CancelAppointment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.CancelAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	if err := h.bookingController.CancelAppointment(c.Context(), userID, req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Appointment cancelled"))
}

// SyncPackages reconciles the caller's Acuity certificates into their
// package list. The caller identity pins the email filter, so a client can
// only ever sync their own certificates.
func (h *BookingHandler) SyncPackages(c *fiber.Ctx) error {
	userEmail, ok := c.Locals("userEmail").(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	result, err := h.bookingController.SyncCertificates(c.Context(), "", userEmail)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Package sync failed"))
	}

	return c.JSON(models.SuccessResponse(result, "Packages synced"))
}
