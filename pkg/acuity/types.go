package acuity

// Typed mirrors of the Acuity API payloads we consume. Responses are decoded
// into these at the boundary; malformed payloads fail here instead of leaking
// untyped maps into the services.

type AppointmentType struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    string  `json:"price"`
	Category string  `json:"category"`
	Active   bool    `json:"active"`
	Calendar []int   `json:"calendarIDs"`
	Deposit  *string `json:"deposit"`
}

type Calendar struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

type AvailabilityDate struct {
	Date string `json:"date"` // YYYY-MM-DD
}

type AvailabilityTime struct {
	Time string `json:"time"` // RFC3339 with offset
}

type Appointment struct {
	ID                int64  `json:"id"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Datetime          string `json:"datetime"` // RFC3339 with offset
	Duration          string `json:"duration"` // minutes, as string
	AppointmentTypeID int    `json:"appointmentTypeID"`
	CalendarID        int    `json:"calendarID"`
	Type              string `json:"type"`
	Price             string `json:"price"`
	Paid              string `json:"paid"`
	Canceled          bool   `json:"canceled"`
	CertificateCode   string `json:"certificate"`
}

// Certificate is Acuity's prepaid credit object. Count-based certificates
// carry per-type remaining counts; minutes-based ones carry remainingMinutes.
type Certificate struct {
	ID                 int         `json:"id"`
	Certificate        string      `json:"certificate"`
	ProductID          int         `json:"productID"`
	OrderID            int         `json:"orderID"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Type               string      `json:"type"`
	AppointmentTypeIDs []int       `json:"appointmentTypeIDs"`
	RemainingCounts    map[int]int `json:"remainingCounts"`
	RemainingMinutes   int         `json:"remainingMinutes"`
	Expiration         string      `json:"expiration"` // YYYY-MM-DD, may be empty
}

// RemainingSessions converts a certificate's balance into whole sessions.
// Minutes-based certificates divide by the session length, rounding down;
// count-based ones sum the per-type counts.
func (c *Certificate) RemainingSessions(sessionMinutes int) int {
	if c.RemainingMinutes > 0 {
		if sessionMinutes <= 0 {
			return 0
		}
		return c.RemainingMinutes / sessionMinutes
	}
	total := 0
	for _, n := range c.RemainingCounts {
		total += n
	}
	return total
}

type CreateAppointmentRequest struct {
	Datetime          string       `json:"datetime"`
	AppointmentTypeID int          `json:"appointmentTypeID"`
	CalendarID        int          `json:"calendarID,omitempty"`
	FirstName         string       `json:"firstName"`
	LastName          string       `json:"lastName"`
	Email             string       `json:"email"`
	Phone             string       `json:"phone,omitempty"`
	Certificate       string       `json:"certificate,omitempty"`
	Fields            []FieldValue `json:"fields,omitempty"`
}

type FieldValue struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}
