package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theraloop/theraloop-backend/internal/controller"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/pkg/utils"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminController   *controller.AdminController
	bookingController *controller.BookingController
	validator         *utils.Validator
	logger            *zap.Logger
}

func NewAdminHandler(adminController *controller.AdminController, bookingController *controller.BookingController, validator *utils.Validator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminController:   adminController,
		bookingController: bookingController,
		validator:         validator,
		logger:            logger,
	}
}

func (h *AdminHandler) GetRetentionReport(c *fiber.Ctx) error {
	from, to, err := h.reportWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	report, err := h.adminController.GetRetentionReport(c.Context(), from, to)
	if err != nil {
		h.logger.Error("retention report failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse("Could not build retention report"))
	}

	return c.JSON(models.SuccessResponse(report, "Retention report"))
}

func (h *AdminHandler) GetRevenueReport(c *fiber.Ctx) error {
	from, to, err := h.reportWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	report, err := h.adminController.GetRevenueReport(from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(report, "Revenue report"))
}

func (h *AdminHandler) ExportRevenueReport(c *fiber.Ctx) error {
	from, to, err := h.reportWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	export, err := h.adminController.ExportRevenueReport(c.Context(), from, to)
	if err != nil {
		h.logger.Error("report export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Could not export report"))
	}

	return c.JSON(models.SuccessResponse(export, "Report exported"))
}

// SyncAllCertificates reconciles every Acuity certificate, not just the
// caller's. Admin-only; the empty caller email leaves the filter open.
func (h *AdminHandler) SyncAllCertificates(c *fiber.Ctx) error {
	emailFilter := c.Query("email")

	result, err := h.bookingController.SyncCertificates(c.Context(), emailFilter, "")
	if err != nil {
		h.logger.Error("admin certificate sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Certificate sync failed"))
	}

	return c.JSON(models.SuccessResponse(result, "Certificates synced"))
}

func (h *AdminHandler) reportWindow(c *fiber.Ctx) (string, string, error) {
	req := models.ReportWindowRequest{
		From: c.Query("from"),
		To:   c.Query("to"),
	}
	if err := h.validator.Struct(req); err != nil {
		return "", "", fiber.NewError(fiber.StatusBadRequest, "from and to are required (YYYY-MM-DD)")
	}
	return req.From, req.To, nil
}
