package service

import (
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
)

type PackageService struct {
	packageRepo     *repository.TherapyPackageRepository
	userPackageRepo *repository.UserPackageRepository
}

func NewPackageService(packageRepo *repository.TherapyPackageRepository, userPackageRepo *repository.UserPackageRepository) *PackageService {
	return &PackageService{
		packageRepo:     packageRepo,
		userPackageRepo: userPackageRepo,
	}
}

func (s *PackageService) GetAllPackages() ([]models.TherapyPackage, error) {
	return s.packageRepo.GetAll()
}

func (s *PackageService) GetPackageByID(id uint) (*models.TherapyPackage, error) {
	return s.packageRepo.GetByID(id)
}

// GetUserPackages returns the caller's purchased bundles, newest first.
func (s *PackageService) GetUserPackages(userID uint) ([]models.UserPackage, error) {
	return s.userPackageRepo.GetByUser(userID)
}
