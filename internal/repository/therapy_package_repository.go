package repository

import (
	"github.com/theraloop/theraloop-backend/internal/models"
	"gorm.io/gorm"
)

type TherapyPackageRepository struct {
	db *gorm.DB
}

func NewTherapyPackageRepository(db *gorm.DB) *TherapyPackageRepository {
	return &TherapyPackageRepository{
		db: db,
	}
}

func (r *TherapyPackageRepository) GetByID(id uint) (*models.TherapyPackage, error) {
	var pkg models.TherapyPackage
	err := r.db.First(&pkg, id).Error
	return &pkg, err
}

func (r *TherapyPackageRepository) GetAll() ([]models.TherapyPackage, error) {
	var packages []models.TherapyPackage
	err := r.db.Where("is_active = ?", true).Find(&packages).Error
	return packages, err
}
