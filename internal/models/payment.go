package models

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type ConfirmPurchaseRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// ConfirmAppointmentRequest confirms a single-session purchase after the
// Stripe redirect and books the paid appointment in Acuity.
type ConfirmAppointmentRequest struct {
	SessionID         string            `json:"session_id" validate:"required"`
	AppointmentTypeID int               `json:"appointment_type_id" validate:"required"`
	CalendarID        int               `json:"calendar_id"`
	Datetime          string            `json:"datetime" validate:"required"`
	FirstName         string            `json:"first_name" validate:"required"`
	LastName          string            `json:"last_name" validate:"required"`
	Email             string            `json:"email" validate:"required,email"`
	Phone             string            `json:"phone"`
	IntakeFields      map[string]string `json:"intake_fields,omitempty"`
}
