package models

import "time"

const (
	ActivityPackagePurchased  = "package_purchased"
	ActivityPackageSynced     = "package_synced"
	ActivitySessionBooked     = "session_booked"
	ActivityAppointmentBooked = "appointment_booked"
	ActivityRefundIssued      = "refund_issued"
)

type ActivityLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Action    string    `json:"action" gorm:"not null"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
