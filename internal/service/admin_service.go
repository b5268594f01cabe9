package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"github.com/theraloop/theraloop-backend/pkg/storage"
	"go.uber.org/zap"
)

// AppointmentLister is the slice of the Acuity client the admin funnel reads.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, email, minDate, maxDate string) ([]acuity.Appointment, error)
}

// AdminService computes the retention/revenue funnel. It is reporting
// arithmetic over fetched appointment lists and the purchase ledger, not a
// live aggregation pipeline; reports are generated on request.
type AdminService struct {
	acuityClient    AppointmentLister
	userPackageRepo *repository.UserPackageRepository
	reportStorage   storage.StorageService
	logger          *zap.Logger
}

func NewAdminService(
	acuityClient AppointmentLister,
	userPackageRepo *repository.UserPackageRepository,
	reportStorage storage.StorageService,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		acuityClient:    acuityClient,
		userPackageRepo: userPackageRepo,
		reportStorage:   reportStorage,
		logger:          logger,
	}
}

// GetRetentionReport groups clients by the month of their first appointment
// in the window and reports how many came back for more sessions.
func (s *AdminService) GetRetentionReport(ctx context.Context, from, to string) (*models.RetentionReport, error) {
	appointments, err := s.acuityClient.ListAppointments(ctx, "", from, to)
	if err != nil {
		return nil, err
	}

	type clientStats struct {
		firstMonth string
		sessions   int
	}

	clients := map[string]*clientStats{}
	for _, appt := range appointments {
		if appt.Canceled || appt.Email == "" {
			continue
		}
		month := monthOf(appt)
		if month == "" {
			continue
		}
		c, ok := clients[appt.Email]
		if !ok {
			clients[appt.Email] = &clientStats{firstMonth: month, sessions: 1}
			continue
		}
		c.sessions++
		if month < c.firstMonth {
			c.firstMonth = month
		}
	}

	byMonth := map[string]*models.CohortStats{}
	for _, c := range clients {
		cohort, ok := byMonth[c.firstMonth]
		if !ok {
			cohort = &models.CohortStats{Month: c.firstMonth}
			byMonth[c.firstMonth] = cohort
		}
		cohort.NewClients++
		cohort.TotalSessions += c.sessions
		if c.sessions > 1 {
			cohort.ReturningClients++
		}
	}

	report := &models.RetentionReport{
		From:         from,
		To:           to,
		TotalClients: len(clients),
	}
	for _, cohort := range byMonth {
		if cohort.NewClients > 0 {
			cohort.RetentionRate = 100 * float64(cohort.ReturningClients) / float64(cohort.NewClients)
			cohort.AvgSessions = float64(cohort.TotalSessions) / float64(cohort.NewClients)
		}
		report.Cohorts = append(report.Cohorts, *cohort)
	}
	sort.Slice(report.Cohorts, func(i, j int) bool {
		return report.Cohorts[i].Month < report.Cohorts[j].Month
	})

	return report, nil
}

// GetRevenueReport sums the purchase ledger over a window.
func (s *AdminService) GetRevenueReport(from, to string) (*models.RevenueReport, error) {
	packages, err := s.userPackageRepo.GetAllBetween(from, to)
	if err != nil {
		return nil, err
	}

	report := &models.RevenueReport{From: from, To: to}
	for _, pkg := range packages {
		report.PackagesSold++
		report.TotalRevenue += pkg.AmountPaid
		report.SessionsUsed += pkg.TotalSessions - pkg.RemainingSessions
		report.SessionsUnused += pkg.RemainingSessions
	}

	return report, nil
}

// ExportRevenueReport writes the window's ledger rows to CSV and uploads
// them to the report bucket.
func (s *AdminService) ExportRevenueReport(ctx context.Context, from, to string) (*models.ReportExport, error) {
	packages, err := s.userPackageRepo.GetAllBetween(from, to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"purchased_at", "user_id", "package", "total_sessions", "remaining_sessions", "amount_paid", "external_reference"})
	for _, pkg := range packages {
		_ = w.Write([]string{
			pkg.PurchasedAt.Format("2006-01-02"),
			strconv.FormatUint(uint64(pkg.UserID), 10),
			pkg.PackageName,
			strconv.Itoa(pkg.TotalSessions),
			strconv.Itoa(pkg.RemainingSessions),
			fmt.Sprintf("%.2f", pkg.AmountPaid),
			pkg.ExternalReference,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/revenue-%s-%s-%s.csv", from, to, uuid.NewString())
	if err := s.reportStorage.Upload(key, &buf); err != nil {
		return nil, err
	}

	s.logger.Info("revenue report exported",
		zap.String("key", key),
		zap.Int("rows", len(packages)),
	)

	return &models.ReportExport{
		Key: key,
		URL: s.reportStorage.PublicURL(key),
	}, nil
}

// monthOf prefers the structured datetime, falling back to the date field.
func monthOf(appt acuity.Appointment) string {
	if t := parseAcuityDatetime(appt.Datetime); !t.IsZero() {
		return t.Format("2006-01")
	}
	if t, err := time.Parse("January 2, 2006", appt.Date); err == nil {
		return t.Format("2006-01")
	}
	return ""
}
