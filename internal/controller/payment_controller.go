package controller

import (
	"context"

	"github.com/stripe/stripe-go/v74"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
)

type PaymentController struct {
	paymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

func (c *PaymentController) CreatePackageCheckout(userID uint, packageID uint) (*models.CheckoutSession, error) {
	return c.paymentService.CreatePackageCheckout(userID, packageID)
}

func (c *PaymentController) ConfirmPackagePurchase(userID uint, sessionID string) (*models.UserPackage, error) {
	return c.paymentService.ConfirmPackagePurchase(userID, sessionID)
}

func (c *PaymentController) ConfirmAppointmentBooking(ctx context.Context, userID uint, req models.ConfirmAppointmentRequest) (*models.Appointment, error) {
	return c.paymentService.ConfirmAppointmentBooking(ctx, userID, req)
}

func (c *PaymentController) HandleStripeWebhook(event *stripe.Event) error {
	return c.paymentService.HandleStripeWebhook(event)
}

func (c *PaymentController) GetPurchaseHistory(userID uint) ([]models.UserPackage, error) {
	return c.paymentService.GetPurchaseHistory(userID)
}
