package service

import (
	"context"

	"github.com/theraloop/theraloop-backend/pkg/acuity"
)

// ScheduleAPI is the read-only slice of the Acuity client backing the
// booking UI: types, calendars and availability.
type ScheduleAPI interface {
	ListAppointmentTypes(ctx context.Context) ([]acuity.AppointmentType, error)
	ListCalendars(ctx context.Context) ([]acuity.Calendar, error)
	ListAvailabilityDates(ctx context.Context, appointmentTypeID int, month string, calendarID int) ([]acuity.AvailabilityDate, error)
	ListAvailabilityTimes(ctx context.Context, appointmentTypeID int, date string, calendarID int) ([]acuity.AvailabilityTime, error)
}

type ScheduleService struct {
	acuityClient ScheduleAPI
}

func NewScheduleService(acuityClient ScheduleAPI) *ScheduleService {
	return &ScheduleService{
		acuityClient: acuityClient,
	}
}

func (s *ScheduleService) GetAppointmentTypes(ctx context.Context) ([]acuity.AppointmentType, error) {
	return s.acuityClient.ListAppointmentTypes(ctx)
}

func (s *ScheduleService) GetCalendars(ctx context.Context) ([]acuity.Calendar, error) {
	return s.acuityClient.ListCalendars(ctx)
}

func (s *ScheduleService) GetAvailableDates(ctx context.Context, appointmentTypeID int, month string, calendarID int) ([]acuity.AvailabilityDate, error) {
	return s.acuityClient.ListAvailabilityDates(ctx, appointmentTypeID, month, calendarID)
}

func (s *ScheduleService) GetAvailableTimes(ctx context.Context, appointmentTypeID int, date string, calendarID int) ([]acuity.AvailabilityTime, error) {
	return s.acuityClient.ListAvailabilityTimes(ctx, appointmentTypeID, date, calendarID)
}
