package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/metrics"
)

// retentionDays is the fixed purge horizon. PurgeStale deletes strictly
// older rows; a row created exactly retentionDays ago survives.
const retentionDays = 15

// Service exposes the notification feed operations.
type Service interface {
	Create(ctx context.Context, tx *gorm.DB, notificationType enums.NotificationType, message string) error
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
	PurgeStale(ctx context.Context) (int64, error)
}

type service struct {
	repo    Repository
	metrics *metrics.StoreMetrics
	now     func() time.Time
}

// NewService builds a notification service with the required dependencies.
func NewService(repo Repository, storeMetrics *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{
		repo:    repo,
		metrics: storeMetrics,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, tx *gorm.DB, notificationType enums.NotificationType, message string) error {
	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification message required")
	}
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	row := models.Notification{
		ID:      uuid.New(),
		Type:    notificationType,
		Message: message,
	}
	if err := repo.Insert(ctx, &row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert notification")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.Notification, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	affected, err := s.repo.MarkRead(ctx, id, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) error {
	if err := s.repo.MarkAllRead(ctx, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return nil
}

// PurgeStale deletes rows created strictly before now - retentionDays.
func (s *service) PurgeStale(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge stale notifications")
	}
	s.metrics.AddNotificationsPurged(deleted)
	return deleted, nil
}
