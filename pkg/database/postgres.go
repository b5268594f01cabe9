package database

import (
	"log"
	"os"

	"github.com/theraloop/theraloop-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase() *gorm.DB {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.TherapyPackage{},
		&models.UserPackage{},
		&models.Appointment{},
		&models.ActivityLog{},
	)
	if err != nil {
		return err
	}

	return seedPackages(db)
}

// seedPackages inserts the package catalog if it isn't there yet. Appointment
// type ids come from the Acuity account and are overridden per environment.
func seedPackages(db *gorm.DB) error {
	packages := []models.TherapyPackage{
		{
			Name:              "Single Session",
			Description:       "One 50-minute therapy session",
			Sessions:          1,
			SessionMinutes:    50,
			Price:             65.00,
			ValidityDays:      90,
			AppointmentTypeID: 1,
			IsActive:          true,
		},
		{
			Name:              "Starter Pack",
			Description:       "4 x 50-minute sessions, valid 6 months",
			Sessions:          4,
			SessionMinutes:    50,
			Price:             240.00,
			ValidityDays:      180,
			AppointmentTypeID: 1,
			IsActive:          true,
		},
		{
			Name:              "Commitment Pack",
			Description:       "6 x 50-minute sessions, valid 6 months",
			Sessions:          6,
			SessionMinutes:    50,
			Price:             330.00,
			ValidityDays:      180,
			AppointmentTypeID: 1,
			IsActive:          true,
		},
		{
			Name:              "Intensive Pack",
			Description:       "12 x 50-minute sessions, valid 12 months",
			Sessions:          12,
			SessionMinutes:    50,
			Price:             600.00,
			ValidityDays:      365,
			AppointmentTypeID: 1,
			IsActive:          true,
		},
	}

	for _, pkg := range packages {
		var count int64
		db.Model(&models.TherapyPackage{}).Where("name = ?", pkg.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
