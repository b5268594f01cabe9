package models

import "time"

type TherapyPackage struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"not null"`
	Description       string    `json:"description"`
	Sessions          int       `json:"sessions" gorm:"not null"`
	SessionMinutes    int       `json:"session_minutes" gorm:"not null;default:50"`
	Price             float64   `json:"price" gorm:"not null"`
	ValidityDays      int       `json:"validity_days"`
	AppointmentTypeID int       `json:"appointment_type_id" gorm:"not null"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserPackage is one purchased bundle of prepaid sessions. ExternalReference
// is the deduplication key: a Stripe checkout session id for paid packages,
// or "acuity-cert-{id}" for rows discovered via certificate sync.
type UserPackage struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"user_id" gorm:"not null;index"`
	PackageID         uint       `json:"package_id"`
	PackageName       string     `json:"package_name" gorm:"not null"`
	TotalSessions     int        `json:"total_sessions" gorm:"not null"`
	RemainingSessions int        `json:"remaining_sessions" gorm:"not null"`
	AmountPaid        float64    `json:"amount_paid"`
	ExternalReference string     `json:"external_reference" gorm:"unique;not null"`
	PurchasedAt       time.Time  `json:"purchased_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Expired reports whether the package can no longer be redeemed. A nil
// ExpiresAt means the package never expires.
func (p *UserPackage) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}
