package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrPaymentNotCompleted = errors.New("payment has not completed")

// ErrBookingFailedRefunded is the generic, provider-agnostic error returned
// when the appointment could not be created after a successful payment.
var ErrBookingFailedRefunded = errors.New("we could not complete your booking; your payment has been refunded")

// StripeGateway is the slice of the Stripe wrapper the payment flow uses.
type StripeGateway interface {
	CreateCheckoutSession(userEmail, name, description string, amount float64, metadata map[string]string) (*stripe.CheckoutSession, error)
	GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error)
	RefundPaymentIntent(paymentIntentID string) (*stripe.Refund, error)
}

type PaymentService struct {
	stripeService   StripeGateway
	acuityClient    AppointmentBooker
	userRepo        *repository.UserRepository
	packageRepo     *repository.TherapyPackageRepository
	userPackageRepo *repository.UserPackageRepository
	appointmentRepo *repository.AppointmentRepository
	activityRepo    *repository.ActivityRepository
	logger          *zap.Logger
}

func NewPaymentService(
	stripeService StripeGateway,
	acuityClient AppointmentBooker,
	userRepo *repository.UserRepository,
	packageRepo *repository.TherapyPackageRepository,
	userPackageRepo *repository.UserPackageRepository,
	appointmentRepo *repository.AppointmentRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		stripeService:   stripeService,
		acuityClient:    acuityClient,
		userRepo:        userRepo,
		packageRepo:     packageRepo,
		userPackageRepo: userPackageRepo,
		appointmentRepo: appointmentRepo,
		activityRepo:    activityRepo,
		logger:          logger,
	}
}

// CreatePackageCheckout opens a Stripe checkout session for a catalog
// package. Nothing is written locally until the payment is confirmed.
func (s *PaymentService) CreatePackageCheckout(userID, packageID uint) (*models.CheckoutSession, error) {
	pkg, err := s.packageRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	session, err := s.stripeService.CreateCheckoutSession(
		user.Email,
		pkg.Name,
		fmt.Sprintf("%d x %d-minute sessions", pkg.Sessions, pkg.SessionMinutes),
		pkg.Price,
		map[string]string{
			"user_id":    fmt.Sprintf("%d", userID),
			"package_id": fmt.Sprintf("%d", packageID),
		},
	)
	if err != nil {
		return nil, err
	}

	return &models.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// ConfirmPackagePurchase verifies a checkout session with Stripe and
// materialises the package row exactly once. The session id doubles as the
// idempotency key: a repeat call finds the existing row and inserts nothing.
func (s *PaymentService) ConfirmPackagePurchase(userID uint, sessionID string) (*models.UserPackage, error) {
	session, err := s.stripeService.GetCheckoutSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, ErrPaymentNotCompleted
	}
	if uid, _ := strconv.ParseUint(session.Metadata["user_id"], 10, 32); uint(uid) != userID {
		return nil, errors.New("payment belongs to a different account")
	}

	if existing, err := s.userPackageRepo.GetByExternalReference(sessionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	packageID, err := strconv.ParseUint(session.Metadata["package_id"], 10, 32)
	if err != nil {
		return nil, errors.New("payment session is missing package metadata")
	}
	pkg, err := s.packageRepo.GetByID(uint(packageID))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userPkg := &models.UserPackage{
		UserID:            userID,
		PackageID:         pkg.ID,
		PackageName:       pkg.Name,
		TotalSessions:     pkg.Sessions,
		RemainingSessions: pkg.Sessions,
		AmountPaid:        pkg.Price,
		ExternalReference: sessionID,
		PurchasedAt:       now,
	}
	if pkg.ValidityDays > 0 {
		expires := now.AddDate(0, 0, pkg.ValidityDays)
		userPkg.ExpiresAt = &expires
	}

	if err := s.userPackageRepo.Create(userPkg); err != nil {
		// A concurrent confirmation may have won the unique-reference race.
		if existing, lookupErr := s.userPackageRepo.GetByExternalReference(sessionID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}

	entry := &models.ActivityLog{
		UserID: userID,
		Action: models.ActivityPackagePurchased,
		Detail: fmt.Sprintf("purchased %q (%d sessions)", pkg.Name, pkg.Sessions),
	}
	if err := s.activityRepo.Create(entry); err != nil {
		s.logger.Warn("failed to record purchase activity", zap.Error(err))
	}

	s.logger.Info("package purchase confirmed",
		zap.Uint("user_id", userID),
		zap.String("session_id", sessionID),
		zap.String("package", pkg.Name),
	)

	return userPkg, nil
}

// ConfirmAppointmentBooking verifies a single-session payment, then books
// the appointment in Acuity. If the booking fails after the payment went
// through, the charge is refunded automatically; a failed refund is logged
// only. Callers get a generic message either way.
func (s *PaymentService) ConfirmAppointmentBooking(ctx context.Context, userID uint, req models.ConfirmAppointmentRequest) (*models.Appointment, error) {
	session, err := s.stripeService.GetCheckoutSession(req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, ErrPaymentNotCompleted
	}
	if uid, _ := strconv.ParseUint(session.Metadata["user_id"], 10, 32); uint(uid) != userID {
		return nil, errors.New("payment belongs to a different account")
	}

	if existing, err := s.appointmentRepo.GetByPaymentReference(req.SessionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	appt, err := s.bookPaidAppointment(ctx, req)
	if err != nil {
		s.logger.Error("paid booking failed, refunding",
			zap.Uint("user_id", userID),
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		s.refund(userID, session)
		return nil, ErrBookingFailedRefunded
	}

	record := &models.Appointment{
		UserID:              userID,
		AcuityAppointmentID: appt.ID,
		AppointmentTypeID:   req.AppointmentTypeID,
		CalendarID:          req.CalendarID,
		StartsAt:            parseAcuityDatetime(appt.Datetime),
		DurationMinutes:     parseDuration(appt.Duration),
		Status:              models.AppointmentStatusBooked,
		PaymentReference:    req.SessionID,
	}
	if err := s.appointmentRepo.Create(record); err != nil {
		if existing, lookupErr := s.appointmentRepo.GetByPaymentReference(req.SessionID); lookupErr == nil {
			return existing, nil
		}
		s.logger.Error("failed to store paid appointment record", zap.Error(err))
	}

	entry := &models.ActivityLog{
		UserID: userID,
		Action: models.ActivityAppointmentBooked,
		Detail: fmt.Sprintf("booked %s (paid session)", appt.Datetime),
	}
	if err := s.activityRepo.Create(entry); err != nil {
		s.logger.Warn("failed to record booking activity", zap.Error(err))
	}

	return record, nil
}

func (s *PaymentService) bookPaidAppointment(ctx context.Context, req models.ConfirmAppointmentRequest) (*acuity.Appointment, error) {
	acuityReq := acuity.CreateAppointmentRequest{
		Datetime:          req.Datetime,
		AppointmentTypeID: req.AppointmentTypeID,
		CalendarID:        req.CalendarID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		Fields:            intakeFields(req.IntakeFields),
	}

	appt, err := s.acuityClient.CreateAppointment(ctx, acuityReq)
	if err == nil {
		return appt, nil
	}
	if !errors.Is(err, acuity.ErrInvalidIntakeFields) || len(acuityReq.Fields) == 0 {
		return nil, err
	}

	acuityReq.Fields = nil
	return s.acuityClient.CreateAppointment(ctx, acuityReq)
}

func (s *PaymentService) refund(userID uint, session *stripe.CheckoutSession) {
	if session.PaymentIntent == nil {
		s.logger.Error("cannot refund: session has no payment intent",
			zap.String("session_id", session.ID),
		)
		return
	}

	if _, err := s.stripeService.RefundPaymentIntent(session.PaymentIntent.ID); err != nil {
		// Logged only; there is no automatic retry. Support reconciles
		// failed refunds by hand from the Stripe dashboard.
		s.logger.Error("refund failed",
			zap.String("session_id", session.ID),
			zap.String("payment_intent", session.PaymentIntent.ID),
			zap.Error(err),
		)
		return
	}

	entry := &models.ActivityLog{
		UserID: userID,
		Action: models.ActivityRefundIssued,
		Detail: "refunded payment for failed booking " + session.ID,
	}
	if err := s.activityRepo.Create(entry); err != nil {
		s.logger.Warn("failed to record refund activity", zap.Error(err))
	}
}

// HandleStripeWebhook is a secondary confirmation path. The dashboard polls
// ConfirmPackagePurchase after the redirect; the webhook funnels into the
// same idempotent materialiser, so whichever arrives first wins and the
// other is a no-op.
func (s *PaymentService) HandleStripeWebhook(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}

		if session.Metadata["package_id"] == "" {
			// Single-session payments need booking details from the client;
			// they are confirmed only via ConfirmAppointmentBooking.
			return nil
		}

		userID, err := strconv.ParseUint(session.Metadata["user_id"], 10, 32)
		if err != nil {
			return err
		}

		_, err = s.ConfirmPackagePurchase(uint(userID), session.ID)
		return err
	}

	return nil
}

func (s *PaymentService) GetPurchaseHistory(userID uint) ([]models.UserPackage, error) {
	return s.userPackageRepo.GetByUser(userID)
}
