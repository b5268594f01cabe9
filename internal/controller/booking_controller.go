package controller

import (
	"context"

	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
)

type BookingController struct {
	bookingService *service.BookingService
	syncService    *service.SyncService
}

func NewBookingController(bookingService *service.BookingService, syncService *service.SyncService) *BookingController {
	return &BookingController{
		bookingService: bookingService,
		syncService:    syncService,
	}
}

func (c *BookingController) BookWithPackage(ctx context.Context, userID uint, req models.BookWithPackageRequest) (*models.BookingResult, error) {
	return c.bookingService.BookWithPackage(ctx, userID, req)
}

func (c *BookingController) CancelAppointment(ctx context.Context, userID uint, req models.CancelAppointmentRequest) error {
	return c.bookingService.CancelAppointment(ctx, userID, req)
}

func (c *BookingController) SyncCertificates(ctx context.Context, emailFilter, callerEmail string) (*models.SyncResult, error) {
	return c.syncService.SyncCertificates(ctx, emailFilter, callerEmail)
}
