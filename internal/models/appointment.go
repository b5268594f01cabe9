package models

import "time"

const (
	AppointmentStatusBooked    = "booked"
	AppointmentStatusCancelled = "cancelled"
)

// Appointment is the local record of a session booked in Acuity. Acuity stays
// the system of record for scheduling; these rows exist so the dashboard and
// the admin funnel don't have to hit the Acuity API on every read.
type Appointment struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	UserID              uint      `json:"user_id" gorm:"not null;index"`
	UserPackageID       *uint     `json:"user_package_id,omitempty"`
	AcuityAppointmentID int64     `json:"acuity_appointment_id" gorm:"not null"`
	AppointmentTypeID   int       `json:"appointment_type_id" gorm:"not null"`
	CalendarID          int       `json:"calendar_id"`
	StartsAt            time.Time `json:"starts_at" gorm:"not null"`
	DurationMinutes     int       `json:"duration_minutes"`
	Status              string    `json:"status" gorm:"not null;default:'booked'"`
	PaymentReference    string    `json:"payment_reference,omitempty" gorm:"uniqueIndex:idx_appointments_payment_ref,where:payment_reference <> ''"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
