package repository

import (
	"github.com/theraloop/theraloop-backend/internal/models"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{
		db: db,
	}
}

func (r *ActivityRepository) Create(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *ActivityRepository) GetByUser(userID uint, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.ActivityLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
