package handler

import (
	"errors"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74/webhook"
	"github.com/theraloop/theraloop-backend/internal/controller"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
	"github.com/theraloop/theraloop-backend/pkg/utils"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentController *controller.PaymentController
	validator         *utils.Validator
	logger            *zap.Logger
}

func NewPaymentHandler(paymentController *controller.PaymentController, validator *utils.Validator, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentController: paymentController,
		validator:         validator,
		logger:            logger,
	}
}

func (h *PaymentHandler) CreatePackageCheckout(c *fiber.Ctx) error {
	packageID, err := strconv.ParseUint(c.Params("packageId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid package ID"))
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	session, err := h.paymentController.CreatePackageCheckout(userID, uint(packageID))
	if err != nil {
		h.logger.Error("failed to create checkout session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Could not start checkout"))
	}

	return c.JSON(models.SuccessResponse(session, "Checkout session created"))
}

// ConfirmPurchase is called by the client after the Stripe redirect. Safe to
// call repeatedly: the session id is the idempotency key.
func (h *PaymentHandler) ConfirmPurchase(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.ConfirmPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	pkg, err := h.paymentController.ConfirmPackagePurchase(userID, req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotCompleted) {
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(err.Error()))
		}
		h.logger.Error("failed to confirm purchase", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Could not confirm purchase"))
	}

	return c.JSON(models.SuccessResponse(pkg, "Purchase confirmed"))
}

func (h *PaymentHandler) ConfirmAppointment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.ConfirmAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	appointment, err := h.paymentController.ConfirmAppointmentBooking(c.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotCompleted) {
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(err.Error()))
		}
		if errors.Is(err, service.ErrBookingFailedRefunded) {
			return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse(err.Error()))
		}
		h.logger.Error("failed to confirm appointment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Could not confirm booking"))
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(appointment, "Appointment booked"))
}

func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid webhook payload"))
	}

	if err := h.paymentController.HandleStripeWebhook(&event); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PaymentHandler) GetPurchaseHistory(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	purchases, err := h.paymentController.GetPurchaseHistory(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(purchases, "Purchase history retrieved"))
}
