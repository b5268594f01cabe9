package controller

import (
	"context"

	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/service"
)

type AdminController struct {
	adminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

func (c *AdminController) GetRetentionReport(ctx context.Context, from, to string) (*models.RetentionReport, error) {
	return c.adminService.GetRetentionReport(ctx, from, to)
}

func (c *AdminController) GetRevenueReport(from, to string) (*models.RevenueReport, error) {
	return c.adminService.GetRevenueReport(from, to)
}

func (c *AdminController) ExportRevenueReport(ctx context.Context, from, to string) (*models.ReportExport, error) {
	return c.adminService.ExportRevenueReport(ctx, from, to)
}
