package repository

import (
	"errors"

	"github.com/theraloop/theraloop-backend/internal/models"
	"gorm.io/gorm"
)

// ErrNoSessionsLeft is returned by DeductSession when the conditional
// decrement matched no row: either the package is gone or its balance
// already hit zero under a concurrent booking.
var ErrNoSessionsLeft = errors.New("no remaining sessions on package")

type UserPackageRepository struct {
	db *gorm.DB
}

func NewUserPackageRepository(db *gorm.DB) *UserPackageRepository {
	return &UserPackageRepository{
		db: db,
	}
}

func (r *UserPackageRepository) Create(pkg *models.UserPackage) error {
	return r.db.Create(pkg).Error
}

func (r *UserPackageRepository) GetByID(id uint) (*models.UserPackage, error) {
	var pkg models.UserPackage
	err := r.db.First(&pkg, id).Error
	return &pkg, err
}

func (r *UserPackageRepository) GetByUser(userID uint) ([]models.UserPackage, error) {
	var packages []models.UserPackage
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&packages).Error
	return packages, err
}

// GetByExternalReference looks a package up by its deduplication key,
// across all users. The global scope is deliberate: it stops a certificate
// from being re-created under another account if the email-to-user mapping
// ever changes.
func (r *UserPackageRepository) GetByExternalReference(ref string) (*models.UserPackage, error) {
	var pkg models.UserPackage
	err := r.db.Where("external_reference = ?", ref).First(&pkg).Error
	return &pkg, err
}

// UpdateRemainingSessions overwrites the balance. Only the sync path uses
// this; Acuity is ground truth there and may set any value.
func (r *UserPackageRepository) UpdateRemainingSessions(id uint, remaining int) error {
	return r.db.Model(&models.UserPackage{}).Where("id = ?", id).
		Update("remaining_sessions", remaining).Error
}

// DeductSession consumes one session with a single conditional decrement,
// so concurrent bookings against the same package cannot overdraw it.
func (r *UserPackageRepository) DeductSession(id uint) error {
	result := r.db.Model(&models.UserPackage{}).
		Where("id = ? AND remaining_sessions > 0", id).
		UpdateColumn("remaining_sessions", gorm.Expr("remaining_sessions - 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoSessionsLeft
	}
	return nil
}

// Revenue aggregates for the admin revenue report.

func (r *UserPackageRepository) GetAllBetween(from, to string) ([]models.UserPackage, error) {
	var packages []models.UserPackage
	err := r.db.Where("purchased_at >= ? AND purchased_at < ?", from, to).
		Order("purchased_at ASC").
		Find(&packages).Error
	return packages, err
}
