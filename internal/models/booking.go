package models

import "time"

type BookWithPackageRequest struct {
	UserPackageID     uint              `json:"user_package_id" validate:"required"`
	AppointmentTypeID int               `json:"appointment_type_id" validate:"required"`
	CalendarID        int               `json:"calendar_id"`
	Datetime          string            `json:"datetime" validate:"required"`
	FirstName         string            `json:"first_name" validate:"required"`
	LastName          string            `json:"last_name" validate:"required"`
	Phone             string            `json:"phone"`
	IntakeFields      map[string]string `json:"intake_fields,omitempty"`
}

type BookingResult struct {
	Appointment       Appointment `json:"appointment"`
	RemainingSessions int         `json:"remaining_sessions"`
}

// SyncResult summarises one certificate sync run. Retry is set when the
// Acuity call failed transiently and nothing was reconciled this time.
type SyncResult struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Retry   bool     `json:"retry"`
	Errors  []string `json:"errors,omitempty"`
}

type AvailableDatesRequest struct {
	AppointmentTypeID int    `query:"appointmentTypeID" validate:"required"`
	CalendarID        int    `query:"calendarID"`
	Month             string `query:"month" validate:"required,yearmonth"`
}

type AvailableTimesRequest struct {
	AppointmentTypeID int    `query:"appointmentTypeID" validate:"required"`
	CalendarID        int    `query:"calendarID"`
	Date              string `query:"date" validate:"required,dateonly"`
}

type CancelAppointmentRequest struct {
	AppointmentID uint      `json:"appointment_id" validate:"required"`
	Reason        string    `json:"reason"`
	RequestedAt   time.Time `json:"-"`
}
