package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"go.uber.org/zap"
)

var (
	ErrPackageNotOwned     = errors.New("package does not belong to you")
	ErrNoSessionsRemaining = errors.New("package has no remaining sessions")
	ErrPackageExpired      = errors.New("package has expired")
)

// AppointmentBooker is the slice of the Acuity client that creates and
// cancels appointments.
type AppointmentBooker interface {
	CreateAppointment(ctx context.Context, req acuity.CreateAppointmentRequest) (*acuity.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID int64) (*acuity.Appointment, error)
}

// BookingNotifier sends the follow-on emails after a successful booking.
type BookingNotifier interface {
	SendBookingConfirmationEmail(to, fullName, datetime string) error
	SendLowCreditsEmail(to, fullName string, remaining int) error
	SendCreditsDepletedEmail(to, fullName string) error
}

type BookingService struct {
	acuityClient    AppointmentBooker
	userRepo        *repository.UserRepository
	userPackageRepo *repository.UserPackageRepository
	appointmentRepo *repository.AppointmentRepository
	activityRepo    *repository.ActivityRepository
	notifier        BookingNotifier
	logger          *zap.Logger
}

func NewBookingService(
	acuityClient AppointmentBooker,
	userRepo *repository.UserRepository,
	userPackageRepo *repository.UserPackageRepository,
	appointmentRepo *repository.AppointmentRepository,
	activityRepo *repository.ActivityRepository,
	notifier BookingNotifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		acuityClient:    acuityClient,
		userRepo:        userRepo,
		userPackageRepo: userPackageRepo,
		appointmentRepo: appointmentRepo,
		activityRepo:    activityRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// BookWithPackage consumes one prepaid session and books the appointment in
// Acuity. Preconditions are checked before any external call; the deduction
// happens only after Acuity accepts the booking, as a conditional decrement
// so concurrent bookings cannot overdraw the package.
//
// If the decrement fails after Acuity already booked, the appointment is
// NOT cancelled: Acuity stays ground truth and the next certificate sync
// reconciles the balance. The mismatch is logged at error level.
func (s *BookingService) BookWithPackage(ctx context.Context, userID uint, req models.BookWithPackageRequest) (*models.BookingResult, error) {
	pkg, err := s.userPackageRepo.GetByID(req.UserPackageID)
	if err != nil {
		return nil, fmt.Errorf("package not found")
	}
	if pkg.UserID != userID {
		return nil, ErrPackageNotOwned
	}
	if pkg.RemainingSessions <= 0 {
		return nil, ErrNoSessionsRemaining
	}
	if pkg.Expired(time.Now().UTC()) {
		return nil, ErrPackageExpired
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	appt, err := s.createAcuityAppointment(ctx, user.Email, req)
	if err != nil {
		return nil, err
	}

	remaining := pkg.RemainingSessions - 1
	if err := s.userPackageRepo.DeductSession(pkg.ID); err != nil {
		// Accepted inconsistency: the session is booked in Acuity but the
		// local balance was not reduced. Never cancel the client's session
		// over our own write failure; the next sync restores the balance.
		s.logger.Error("booked in acuity but failed to deduct session",
			zap.Uint("user_package_id", pkg.ID),
			zap.Int64("acuity_appointment_id", appt.ID),
			zap.Error(err),
		)
		remaining = pkg.RemainingSessions
	}

	record := &models.Appointment{
		UserID:              userID,
		UserPackageID:       &pkg.ID,
		AcuityAppointmentID: appt.ID,
		AppointmentTypeID:   req.AppointmentTypeID,
		CalendarID:          req.CalendarID,
		StartsAt:            parseAcuityDatetime(appt.Datetime),
		DurationMinutes:     parseDuration(appt.Duration),
		Status:              models.AppointmentStatusBooked,
	}
	if err := s.appointmentRepo.Create(record); err != nil {
		s.logger.Error("failed to store local appointment record",
			zap.Int64("acuity_appointment_id", appt.ID),
			zap.Error(err),
		)
	}

	entry := &models.ActivityLog{
		UserID: userID,
		Action: models.ActivitySessionBooked,
		Detail: fmt.Sprintf("booked %s with package %q, %d session(s) left", appt.Datetime, pkg.PackageName, remaining),
	}
	if err := s.activityRepo.Create(entry); err != nil {
		s.logger.Warn("failed to record booking activity", zap.Error(err))
	}

	go s.notify(user, appt.Datetime, remaining)

	return &models.BookingResult{
		Appointment:       *record,
		RemainingSessions: remaining,
	}, nil
}

// createAcuityAppointment books in Acuity, retrying once without intake
// form fields when Acuity rejects them.
func (s *BookingService) createAcuityAppointment(ctx context.Context, email string, req models.BookWithPackageRequest) (*acuity.Appointment, error) {
	acuityReq := acuity.CreateAppointmentRequest{
		Datetime:          req.Datetime,
		AppointmentTypeID: req.AppointmentTypeID,
		CalendarID:        req.CalendarID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             email,
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

	s.logger.Warn("acuity rejected intake fields, retrying without them", zap.Error(err))
	acuityReq.Fields = nil
	return s.acuityClient.CreateAppointment(ctx, acuityReq)
}

// CancelAppointment cancels in Acuity and marks the local record. The spent
// session is not restored automatically; the practice handles goodwill
// credits by adjusting the certificate in Acuity, which sync then picks up.
func (s *BookingService) CancelAppointment(ctx context.Context, userID uint, req models.CancelAppointmentRequest) error {
	record, err := s.appointmentRepo.GetByID(req.AppointmentID)
	if err != nil {
		return fmt.Errorf("appointment not found")
	}
	if record.UserID != userID {
		return errors.New("appointment does not belong to you")
	}
	if record.Status == models.AppointmentStatusCancelled {
		return nil
	}

	if _, err := s.acuityClient.CancelAppointment(ctx, record.AcuityAppointmentID); err != nil {
		return err
	}

	record.Status = models.AppointmentStatusCancelled
	return s.appointmentRepo.Update(record)
}

func (s *BookingService) notify(user *models.User, datetime string, remaining int) {
	if err := s.notifier.SendBookingConfirmationEmail(user.Email, user.FullName, datetime); err != nil {
		s.logger.Warn("failed to send booking confirmation", zap.Error(err))
	}

	switch {
	case remaining == 0:
		if err := s.notifier.SendCreditsDepletedEmail(user.Email, user.FullName); err != nil {
			s.logger.Warn("failed to send depleted-credits email", zap.Error(err))
		}
	case remaining <= 2:
		if err := s.notifier.SendLowCreditsEmail(user.Email, user.FullName, remaining); err != nil {
			s.logger.Warn("failed to send low-credits email", zap.Error(err))
		}
	}
}

func intakeFields(fields map[string]string) []acuity.FieldValue {
	if len(fields) == 0 {
		return nil
	}
	out := make([]acuity.FieldValue, 0, len(fields))
	for id, value := range fields {
		fieldID, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		out = append(out, acuity.FieldValue{ID: fieldID, Value: value})
	}
	return out
}

func parseAcuityDatetime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseDuration(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
