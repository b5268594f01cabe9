package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeStripeGateway struct {
	sessions    map[string]*stripe.CheckoutSession
	getErr      error
	refundedIDs []string
	refundErr   error
}

func (f *fakeStripeGateway) CreateCheckoutSession(userEmail, name, description string, amount float64, metadata map[string]string) (*stripe.CheckoutSession, error) {
	session := &stripe.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", len(f.sessions)+1),
		URL: "https://checkout.stripe.test/session",
	}
	if f.sessions == nil {
		f.sessions = map[string]*stripe.CheckoutSession{}
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStripeGateway) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing}
	}
	return session, nil
}

func (f *fakeStripeGateway) RefundPaymentIntent(paymentIntentID string) (*stripe.Refund, error) {
	f.refundedIDs = append(f.refundedIDs, paymentIntentID)
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &stripe.Refund{ID: "re_" + paymentIntentID}, nil
}

func paidSession(id string, userID, packageID uint) *stripe.CheckoutSession {
	metadata := map[string]string{
		"user_id": fmt.Sprintf("%d", userID),
	}
	if packageID != 0 {
		metadata["package_id"] = fmt.Sprintf("%d", packageID)
	}
	return &stripe.CheckoutSession{
		ID:            id,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      metadata,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_" + id},
	}
}

func seedTherapyPackage(t *testing.T, db *gorm.DB) *models.TherapyPackage {
	t.Helper()
	pkg := &models.TherapyPackage{
		Name:              "Starter Pack",
		Sessions:          3,
		SessionMinutes:    50,
		Price:             255,
		ValidityDays:      120,
		AppointmentTypeID: 1,
		IsActive:          true,
	}
	require.NoError(t, db.Create(pkg).Error)
	return pkg
}

func newPaymentStack(db *gorm.DB, gateway StripeGateway, booker AppointmentBooker) *PaymentService {
	return NewPaymentService(
		gateway,
		booker,
		repository.NewUserRepository(db),
		repository.NewTherapyPackageRepository(db),
		repository.NewUserPackageRepository(db),
		repository.NewAppointmentRepository(db),
		repository.NewActivityRepository(db),
		zap.NewNop(),
	)
}

func TestConfirmPackagePurchaseCreatesFullPackage(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")
	pkg := seedTherapyPackage(t, db)

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", user.ID, pkg.ID),
	}}
	svc := newPaymentStack(db, gateway, &fakeBooker{})

	userPkg, err := svc.ConfirmPackagePurchase(user.ID, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, pkg.Sessions, userPkg.TotalSessions)
	assert.Equal(t, pkg.Sessions, userPkg.RemainingSessions)
	assert.Equal(t, "cs_test_1", userPkg.ExternalReference)
	require.NotNil(t, userPkg.ExpiresAt)
}

func TestConfirmPackagePurchaseIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")
	pkg := seedTherapyPackage(t, db)

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", user.ID, pkg.ID),
	}}
	svc := newPaymentStack(db, gateway, &fakeBooker{})

	first, err := svc.ConfirmPackagePurchase(user.ID, "cs_test_1")
	require.NoError(t, err)

	second, err := svc.ConfirmPackagePurchase(user.ID, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConfirmPackagePurchaseRejectsUnpaidSession(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")
	pkg := seedTherapyPackage(t, db)

	session := paidSession("cs_test_1", user.ID, pkg.ID)
	session.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": session,
	}}
	svc := newPaymentStack(db, gateway, &fakeBooker{})

	_, err := svc.ConfirmPackagePurchase(user.ID, "cs_test_1")
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestConfirmPackagePurchaseRejectsForeignSession(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "anna@example.com")
	intruder := seedUser(t, db, "ben@example.com")
	pkg := seedTherapyPackage(t, db)

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", owner.ID, pkg.ID),
	}}
	svc := newPaymentStack(db, gateway, &fakeBooker{})

	_, err := svc.ConfirmPackagePurchase(intruder.ID, "cs_test_1")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestConfirmAppointmentBookingRefundsOnFailure(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", user.ID, 0),
	}}
	booker := &fakeBooker{
		failuresLeft: 1,
		failWith:     &acuity.APIError{StatusCode: 400, Message: "slot no longer available"},
	}
	svc := newPaymentStack(db, gateway, booker)

	_, err := svc.ConfirmAppointmentBooking(context.Background(), user.ID, models.ConfirmAppointmentRequest{
		SessionID:         "cs_test_1",
		AppointmentTypeID: 1,
		Datetime:          "2026-09-14T10:00:00+01:00",
		FirstName:         "Anna",
		LastName:          "Client",
		Email:             "anna@example.com",
	})
	assert.ErrorIs(t, err, ErrBookingFailedRefunded)
	assert.Equal(t, []string{"pi_cs_test_1"}, gateway.refundedIDs)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestConfirmAppointmentBookingRejectsForeignSession(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "anna@example.com")
	intruder := seedUser(t, db, "ben@example.com")

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", owner.ID, 0),
	}}
	booker := &fakeBooker{}
	svc := newPaymentStack(db, gateway, booker)

	_, err := svc.ConfirmAppointmentBooking(context.Background(), intruder.ID, models.ConfirmAppointmentRequest{
		SessionID:         "cs_test_1",
		AppointmentTypeID: 1,
		Datetime:          "2026-09-14T10:00:00+01:00",
		FirstName:         "Ben",
		LastName:          "Intruder",
		Email:             "ben@example.com",
	})
	require.Error(t, err)
	assert.Empty(t, booker.createCalls, "no booking may be attempted on someone else's payment")
	assert.Empty(t, gateway.refundedIDs)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestConfirmAppointmentBookingRefundFailureIsLoggedOnly(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	gateway := &fakeStripeGateway{
		sessions: map[string]*stripe.CheckoutSession{
			"cs_test_1": paidSession("cs_test_1", user.ID, 0),
		},
		refundErr: &stripe.Error{Code: stripe.ErrorCodeChargeAlreadyRefunded},
	}
	booker := &fakeBooker{
		failuresLeft: 1,
		failWith:     &acuity.APIError{StatusCode: 400, Message: "slot no longer available"},
	}
	svc := newPaymentStack(db, gateway, booker)

	// A failed refund changes nothing for the caller: same generic error,
	// no appointment, no ledger row. Support reconciles from the Stripe
	// dashboard.
	_, err := svc.ConfirmAppointmentBooking(context.Background(), user.ID, models.ConfirmAppointmentRequest{
		SessionID:         "cs_test_1",
		AppointmentTypeID: 1,
		Datetime:          "2026-09-14T10:00:00+01:00",
		FirstName:         "Anna",
		LastName:          "Client",
		Email:             "anna@example.com",
	})
	assert.ErrorIs(t, err, ErrBookingFailedRefunded)
	assert.Equal(t, []string{"pi_cs_test_1"}, gateway.refundedIDs, "the refund is still attempted")

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestConfirmPackagePurchaseStripeLookupFailure(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	gateway := &fakeStripeGateway{getErr: &stripe.Error{Code: stripe.ErrorCodeResourceMissing}}
	svc := newPaymentStack(db, gateway, &fakeBooker{})

	_, err := svc.ConfirmPackagePurchase(user.ID, "cs_test_1")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestConfirmAppointmentBookingIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", user.ID, 0),
	}}
	booker := &fakeBooker{}
	svc := newPaymentStack(db, gateway, booker)

	req := models.ConfirmAppointmentRequest{
		SessionID:         "cs_test_1",
		AppointmentTypeID: 1,
		Datetime:          "2026-09-14T10:00:00+01:00",
		FirstName:         "Anna",
		LastName:          "Client",
		Email:             "anna@example.com",
	}

	first, err := svc.ConfirmAppointmentBooking(context.Background(), user.ID, req)
	require.NoError(t, err)

	second, err := svc.ConfirmAppointmentBooking(context.Background(), user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, booker.createCalls, 1, "the second confirmation must not rebook")

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleStripeWebhookConfirmsPackagePurchase(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")
	pkg := seedTherapyPackage(t, db)

	gateway := &fakeStripeGateway{sessions: map[string]*stripe.CheckoutSession{
		"cs_test_1": paidSession("cs_test_1", user.ID, pkg.ID),
	}}
	svc := newPaymentStack(db, gateway, &fakeBooker{})

	raw := fmt.Sprintf(`{"id":"cs_test_1","metadata":{"user_id":"%d","package_id":"%d"}}`, user.ID, pkg.ID)
	event := &stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: []byte(raw)},
	}

	require.NoError(t, svc.HandleStripeWebhook(event))

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// The redirect confirmation arriving after the webhook is a no-op.
	_, err := svc.ConfirmPackagePurchase(user.ID, "cs_test_1")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleStripeWebhookIgnoresSingleSessionPayments(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentStack(db, &fakeStripeGateway{}, &fakeBooker{})

	event := &stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: []byte(`{"id":"cs_test_1","metadata":{"user_id":"1"}}`)},
	}
	require.NoError(t, svc.HandleStripeWebhook(event))

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
