package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TherapyPackage{},
		&models.UserPackage{},
		&models.Appointment{},
		&models.ActivityLog{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		FullName: "Test Client",
		Email:    email,
		Password: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type fakeCertificateLister struct {
	certs     []acuity.Certificate
	err       error
	calls     int
	lastEmail string
}

func (f *fakeCertificateLister) ListCertificates(ctx context.Context, email string) ([]acuity.Certificate, error) {
	f.calls++
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return f.certs, nil
}

func newSyncService(db *gorm.DB, lister CertificateLister) *SyncService {
	return NewSyncService(
		lister,
		repository.NewUserRepository(db),
		repository.NewUserPackageRepository(db),
		repository.NewActivityRepository(db),
		zap.NewNop(),
	)
}

func TestSyncInsertsNewCertificate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	lister := &fakeCertificateLister{certs: []acuity.Certificate{
		{
			ID:              101,
			Certificate:     "ABCD1234",
			Name:            "6 Session Pack",
			Email:           "anna@example.com",
			RemainingCounts: map[int]int{1: 4},
		},
	}}

	result, err := newSyncService(db, lister).SyncCertificates(context.Background(), "", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Empty(t, result.Errors)

	pkg, err := repository.NewUserPackageRepository(db).GetByExternalReference("acuity-cert-101")
	require.NoError(t, err)
	assert.Equal(t, user.ID, pkg.UserID)
	assert.Equal(t, 4, pkg.TotalSessions)
	assert.Equal(t, 4, pkg.RemainingSessions)
}

func TestSyncIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "anna@example.com")

	lister := &fakeCertificateLister{certs: []acuity.Certificate{
		{ID: 101, Email: "anna@example.com", Name: "Pack", RemainingCounts: map[int]int{1: 4}},
	}}
	svc := newSyncService(db, lister)

	first, err := svc.SyncCertificates(context.Background(), "", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Synced)

	// Same certificates again: nothing to write, nothing duplicated.
	second, err := svc.SyncCertificates(context.Background(), "", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Synced)
	assert.Equal(t, 1, second.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSyncUpdatesChangedBalance(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna@example.com")

	repo := repository.NewUserPackageRepository(db)
	require.NoError(t, repo.Create(&models.UserPackage{
		UserID:            user.ID,
		PackageName:       "Pack",
		TotalSessions:     6,
		RemainingSessions: 5,
		ExternalReference: "acuity-cert-101",
	}))

	// Acuity says 3 left; local says 5. Acuity wins.
	lister := &fakeCertificateLister{certs: []acuity.Certificate{
		{ID: 101, Email: "anna@example.com", RemainingCounts: map[int]int{1: 3}},
	}}

	result, err := newSyncService(db, lister).SyncCertificates(context.Background(), "", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)

	got, err := repo.GetByExternalReference("acuity-cert-101")
	require.NoError(t, err)
	assert.Equal(t, 3, got.RemainingSessions)
}

func TestSyncNeverReassignsClaimedCertificate(t *testing.T) {
	db := newTestDB(t)
	userA := seedUser(t, db, "anna@example.com")
	seedUser(t, db, "ben@example.com")

	repo := repository.NewUserPackageRepository(db)
	require.NoError(t, repo.Create(&models.UserPackage{
		UserID:            userA.ID,
		PackageName:       "Pack",
		TotalSessions:     6,
		RemainingSessions: 6,
		ExternalReference: "acuity-cert-101",
	}))

	// The certificate email now maps to Ben, but Anna claimed it first.
	lister := &fakeCertificateLister{certs: []acuity.Certificate{
		{ID: 101, Email: "ben@example.com", RemainingCounts: map[int]int{1: 2}},
	}}

	result, err := newSyncService(db, lister).SyncCertificates(context.Background(), "", "ben@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Skipped)

	got, err := repo.GetByExternalReference("acuity-cert-101")
	require.NoError(t, err)
	assert.Equal(t, userA.ID, got.UserID)
	assert.Equal(t, 6, got.RemainingSessions)

	var count int64
	require.NoError(t, db.Model(&models.UserPackage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSyncMinutesBasedCertificate(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "anna@example.com")

	lister := &fakeCertificateLister{certs: []acuity.Certificate{
		{ID: 200, Email: "anna@example.com", Name: "Minutes Pack", RemainingMinutes: 100},
	}}

	result, err := newSyncService(db, lister).SyncCertificates(context.Background(), "", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)

	// floor(100 / 50) = 2
	pkg, err := repository.NewUserPackageRepository(db).GetByExternalReference("acuity-cert-200")
	require.NoError(t, err)
	assert.Equal(t, 2, pkg.RemainingSessions)
}

func TestSyncSkipsUnknownEmail(t *testing.T) {
	db := newTestDB(t)

	lister := &fakeCertificateLister{certs: []acuity.Certificate{
		{ID: 300, Email: "nobody@example.com", RemainingCounts: map[int]int{1: 1}},
	}}

	result, err := newSyncService(db, lister).SyncCertificates(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Skipped)
}

func TestSyncTransientFailureIsRetryable(t *testing.T) {
	db := newTestDB(t)

	lister := &fakeCertificateLister{err: &acuity.APIError{StatusCode: 503, Message: "upstream down"}}

	result, err := newSyncService(db, lister).SyncCertificates(context.Background(), "", "anna@example.com")
	require.NoError(t, err)
	assert.True(t, result.Retry)
	assert.Equal(t, 0, result.Synced)
}

func TestSyncCallerPinsEmailFilter(t *testing.T) {
	db := newTestDB(t)

	lister := &fakeCertificateLister{}
	svc := newSyncService(db, lister)

	_, err := svc.SyncCertificates(context.Background(), "someone-else@example.com", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, "anna@example.com", lister.lastEmail)
}
