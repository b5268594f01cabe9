package service

import (
	"errors"

	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/bcrypt"
)

type UserService struct {
	userRepo        *repository.UserRepository
	appointmentRepo *repository.AppointmentRepository
	activityRepo    *repository.ActivityRepository
}

func NewUserService(userRepo *repository.UserRepository, appointmentRepo *repository.AppointmentRepository, activityRepo *repository.ActivityRepository) *UserService {
	return &UserService{
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		activityRepo:    activityRepo,
	}
}

func (s *UserService) GetProfile(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *UserService) UpdateProfile(userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	user.FullName = req.FullName
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Timezone != "" {
		user.Timezone = req.Timezone
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) ChangePassword(userID uint, req models.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.ComparePassword(user.Password, req.CurrentPassword); err != nil {
		return errors.New("current password is incorrect")
	}

	hashedPassword, err := bcrypt.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(userID, hashedPassword)
}

func (s *UserService) GetAppointments(userID uint) ([]models.Appointment, error) {
	return s.appointmentRepo.GetByUser(userID)
}

func (s *UserService) GetActivity(userID uint, limit int) ([]models.ActivityLog, error) {
	return s.activityRepo.GetByUser(userID, limit)
}
