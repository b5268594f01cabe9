package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeAppointmentLister struct {
	appointments []acuity.Appointment
	err          error
}

func (f *fakeAppointmentLister) ListAppointments(ctx context.Context, email, minDate, maxDate string) ([]acuity.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.appointments, nil
}

type fakeStorage struct {
	uploads map[string]string
}

func (f *fakeStorage) Upload(key string, reader io.Reader) error {
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	f.uploads[key] = string(b)
	return nil
}

func (f *fakeStorage) Delete(key string) error { return nil }

func (f *fakeStorage) PublicURL(key string) string { return "https://reports.test/" + key }

func appointmentAt(email, datetime string, cancelled bool) acuity.Appointment {
	return acuity.Appointment{
		ID:       int64(len(email)) + 1000,
		Email:    email,
		Datetime: datetime,
		Duration: "50",
		Canceled: cancelled,
	}
}

func TestGetRetentionReportGroupsByFirstMonth(t *testing.T) {
	db := newTestDB(t)
	lister := &fakeAppointmentLister{appointments: []acuity.Appointment{
		// Anna: first seen in June, three sessions.
		appointmentAt("anna@example.com", "2026-06-02T10:00:00+01:00", false),
		appointmentAt("anna@example.com", "2026-06-16T10:00:00+01:00", false),
		appointmentAt("anna@example.com", "2026-07-07T10:00:00+01:00", false),
		// Ben: one June session, never returned.
		appointmentAt("ben@example.com", "2026-06-09T14:00:00+01:00", false),
		// Cara: July cohort, cancelled session doesn't count.
		appointmentAt("cara@example.com", "2026-07-01T09:00:00+01:00", false),
		appointmentAt("cara@example.com", "2026-07-15T09:00:00+01:00", true),
	}}

	svc := NewAdminService(lister, repository.NewUserPackageRepository(db), &fakeStorage{}, zap.NewNop())

	report, err := svc.GetRetentionReport(context.Background(), "2026-06-01", "2026-08-01")
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalClients)
	require.Len(t, report.Cohorts, 2)

	june := report.Cohorts[0]
	assert.Equal(t, "2026-06", june.Month)
	assert.Equal(t, 2, june.NewClients)
	assert.Equal(t, 1, june.ReturningClients)
	assert.Equal(t, 4, june.TotalSessions)
	assert.InDelta(t, 50.0, june.RetentionRate, 0.01)
	assert.InDelta(t, 2.0, june.AvgSessions, 0.01)

	july := report.Cohorts[1]
	assert.Equal(t, "2026-07", july.Month)
	assert.Equal(t, 1, july.NewClients)
	assert.Equal(t, 0, july.ReturningClients)
}

func TestGetRevenueReportSumsLedger(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	seedLedgerRow(t, db, user.ID, "cs_a", 6, 2, 450, "2026-06-10")
	seedLedgerRow(t, db, user.ID, "cs_b", 3, 3, 255, "2026-06-20")
	// Outside the window.
	seedLedgerRow(t, db, user.ID, "cs_c", 3, 0, 255, "2026-08-01")

	svc := NewAdminService(&fakeAppointmentLister{}, repository.NewUserPackageRepository(db), &fakeStorage{}, zap.NewNop())

	report, err := svc.GetRevenueReport("2026-06-01", "2026-07-01")
	require.NoError(t, err)
	assert.Equal(t, 2, report.PackagesSold)
	assert.InDelta(t, 705.0, report.TotalRevenue, 0.01)
	assert.Equal(t, 4, report.SessionsUsed)
	assert.Equal(t, 5, report.SessionsUnused)
}

func TestExportRevenueReportUploadsCSV(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")
	seedLedgerRow(t, db, user.ID, "cs_a", 6, 2, 450, "2026-06-10")

	store := &fakeStorage{}
	svc := NewAdminService(&fakeAppointmentLister{}, repository.NewUserPackageRepository(db), store, zap.NewNop())

	export, err := svc.ExportRevenueReport(context.Background(), "2026-06-01", "2026-07-01")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(export.Key, "reports/revenue-2026-06-01-2026-07-01-"))
	assert.Equal(t, "https://reports.test/"+export.Key, export.URL)

	body, ok := store.uploads[export.Key]
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "external_reference")
	assert.Contains(t, lines[1], "cs_a")
	assert.Contains(t, lines[1], "450.00")
}

func seedLedgerRow(t *testing.T, db *gorm.DB, userID uint, ref string, total, remaining int, amount float64, purchased string) {
	t.Helper()

	purchasedAt, err := time.Parse("2006-01-02", purchased)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.UserPackage{
		UserID:            userID,
		PackageName:       "Ledger Pack",
		TotalSessions:     total,
		RemainingSessions: remaining,
		AmountPaid:        amount,
		ExternalReference: ref,
		PurchasedAt:       purchasedAt,
	}).Error)
}
