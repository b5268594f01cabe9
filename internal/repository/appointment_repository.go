package repository

import (
	"github.com/theraloop/theraloop-backend/internal/models"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{
		db: db,
	}
}

func (r *AppointmentRepository) Create(appointment *models.Appointment) error {
	return r.db.Create(appointment).Error
}

func (r *AppointmentRepository) GetByID(id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.First(&appointment, id).Error
	return &appointment, err
}

func (r *AppointmentRepository) GetByUser(userID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("user_id = ?", userID).
		Order("starts_at DESC").
		Find(&appointments).Error
	return appointments, err
}

// GetByPaymentReference is the idempotency lookup for paid single-session
// bookings.
func (r *AppointmentRepository) GetByPaymentReference(ref string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.Where("payment_reference = ?", ref).First(&appointment).Error
	return &appointment, err
}

func (r *AppointmentRepository) Update(appointment *models.Appointment) error {
	return r.db.Save(appointment).Error
}
