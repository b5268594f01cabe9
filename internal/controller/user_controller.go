package controller

import (
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

func (c *UserController) GetProfile(userID uint) (*models.User, error) {
	return c.userService.GetProfile(userID)
}

func (c *UserController) UpdateProfile(userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	return c.userService.UpdateProfile(userID, req)
}

func (c *UserController) ChangePassword(userID uint, req models.ChangePasswordRequest) error {
	return c.userService.ChangePassword(userID, req)
}

func (c *UserController) GetAppointments(userID uint) ([]models.Appointment, error) {
	return c.userService.GetAppointments(userID)
}

func (c *UserController) GetActivity(userID uint, limit int) ([]models.ActivityLog, error) {
	return c.userService.GetActivity(userID, limit)
}
