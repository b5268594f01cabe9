package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/acuity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionMinutes is the divisor for minutes-based certificates. All current
// appointment types are 50-minute sessions.
const SessionMinutes = 50

const certReferencePrefix = "acuity-cert-"

// CertificateLister is the slice of the Acuity client the sync needs.
type CertificateLister interface {
	ListCertificates(ctx context.Context, email string) ([]acuity.Certificate, error)
}

// SyncService reconciles Acuity prepaid certificates into user_packages
// rows. Acuity is the system of record: sync inserts unknown certificates
// and overwrites remaining balances, and never writes back to Acuity.
type SyncService struct {
	acuityClient    CertificateLister
	userRepo        *repository.UserRepository
	userPackageRepo *repository.UserPackageRepository
	activityRepo    *repository.ActivityRepository
	logger          *zap.Logger
}

func NewSyncService(
	acuityClient CertificateLister,
	userRepo *repository.UserRepository,
	userPackageRepo *repository.UserPackageRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		acuityClient:    acuityClient,
		userRepo:        userRepo,
		userPackageRepo: userPackageRepo,
		activityRepo:    activityRepo,
		logger:          logger,
	}
}

// SyncCertificates pulls certificates for emailFilter (or all certificates
// when empty) and reconciles them. A non-empty callerEmail pins the filter
// to the caller's own address regardless of what was asked for.
//
// A transient Acuity failure is not an error: the result comes back with
// Retry set and nothing changed. Per-certificate failures are collected and
// the batch keeps going.
func (s *SyncService) SyncCertificates(ctx context.Context, emailFilter, callerEmail string) (*models.SyncResult, error) {
	if callerEmail != "" {
		emailFilter = callerEmail
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	certs, err := s.acuityClient.ListCertificates(ctx, emailFilter)
	if err != nil {
		if acuity.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("certificate sync skipped, will retry", zap.Error(err))
			return &models.SyncResult{Retry: true}, nil
		}
		return nil, err
	}

	result := &models.SyncResult{}
	for _, cert := range certs {
		synced, err := s.reconcileCertificate(cert)
		if err != nil {
			s.logger.Error("failed to reconcile certificate",
				zap.Int("certificate_id", cert.ID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("certificate %d: %v", cert.ID, err))
			continue
		}
		if synced {
			result.Synced++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("certificate sync finished",
		zap.String("email_filter", emailFilter),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// reconcileCertificate applies one certificate to the ledger. Returns true
// when a row was inserted or updated.
func (s *SyncService) reconcileCertificate(cert acuity.Certificate) (bool, error) {
	remaining := cert.RemainingSessions(SessionMinutes)
	ref := certReferencePrefix + strconv.Itoa(cert.ID)

	owner, err := s.userRepo.GetByEmail(cert.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Certificate holder has no account here yet; leave it alone.
			return false, nil
		}
		return false, err
	}

	existing, err := s.userPackageRepo.GetByExternalReference(ref)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		return true, s.insertFromCertificate(owner, cert, ref, remaining)
	}

	// The lookup is global on purpose: a row claimed by another user is
	// never moved or duplicated, even if the certificate email now maps
	// to someone else.
	if existing.UserID != owner.ID {
		s.logger.Warn("certificate already claimed by another user",
			zap.Int("certificate_id", cert.ID),
			zap.Uint("owner_user_id", existing.UserID),
			zap.Uint("caller_user_id", owner.ID),
		)
		return false, nil
	}

	if existing.RemainingSessions == remaining {
		return false, nil
	}

	if err := s.userPackageRepo.UpdateRemainingSessions(existing.ID, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SyncService) insertFromCertificate(owner *models.User, cert acuity.Certificate, ref string, remaining int) error {
	name := cert.Name
	if name == "" {
		name = "Acuity certificate " + cert.Certificate
	}

	pkg := &models.UserPackage{
		UserID:            owner.ID,
		PackageName:       name,
		TotalSessions:     remaining,
		RemainingSessions: remaining,
		ExternalReference: ref,
		PurchasedAt:       time.Now().UTC(),
		ExpiresAt:         parseExpiration(cert.Expiration),
	}

	if err := s.userPackageRepo.Create(pkg); err != nil {
		return err
	}

	entry := &models.ActivityLog{
		UserID: owner.ID,
		Action: models.ActivityPackageSynced,
		Detail: fmt.Sprintf("imported %q with %d session(s)", name, remaining),
	}
	if err := s.activityRepo.Create(entry); err != nil {
		s.logger.Warn("failed to record sync activity", zap.Error(err))
	}

	return nil
}

func parseExpiration(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
