package address

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
)

type stubAddressRepo struct {
	clearCalls    int
	setCalls      int
	setErrs       []error
	setAffected   int64
	lastSetUser   uuid.UUID
	lastSetTarget uuid.UUID
}

func (s *stubAddressRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubAddressRepo) Create(context.Context, *models.UserAddress) error { return nil }

func (s *stubAddressRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*models.UserAddress, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAddressRepo) ListByUser(context.Context, uuid.UUID) ([]models.UserAddress, error) {
	return nil, nil
}

func (s *stubAddressRepo) Update(context.Context, *models.UserAddress) error { return nil }

func (s *stubAddressRepo) Delete(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubAddressRepo) ClearCurrent(context.Context, uuid.UUID) error {
	s.clearCalls++
	return nil
}

func (s *stubAddressRepo) SetCurrent(_ context.Context, userID, addressID uuid.UUID) (int64, error) {
	idx := s.setCalls
	s.setCalls++
	s.lastSetUser = userID
	s.lastSetTarget = addressID
	if idx < len(s.setErrs) && s.setErrs[idx] != nil {
		return 0, s.setErrs[idx]
	}
	return s.setAffected, nil
}

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestMakeCurrentRetriesOnConcurrentFlagConflict(t *testing.T) {
	repo := &stubAddressRepo{
		setErrs:     []error{errors.New(`duplicate key value violates unique constraint "idx_user_addresses_one_current"`)},
		setAffected: 1,
	}
	svc, err := NewService(repo, passthroughTxRunner{})
	require.NoError(t, err)

	userID, addressID := uuid.New(), uuid.New()
	require.NoError(t, svc.MakeCurrent(context.Background(), userID, addressID))

	assert.Equal(t, 2, repo.setCalls, "loser of the race must retry")
	assert.Equal(t, 2, repo.clearCalls, "each attempt re-clears the book")
	assert.Equal(t, addressID, repo.lastSetTarget)
}

func TestMakeCurrentGivesUpAfterRepeatedConflicts(t *testing.T) {
	conflict := errors.New(`duplicate key value violates unique constraint "idx_user_addresses_one_current"`)
	repo := &stubAddressRepo{
		setErrs:     []error{conflict, conflict, conflict},
		setAffected: 1,
	}
	svc, err := NewService(repo, passthroughTxRunner{})
	require.NoError(t, err)

	err = svc.MakeCurrent(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Equal(t, makeCurrentMaxRetries, repo.setCalls)
}

func TestMakeCurrentDoesNotRetryOtherErrors(t *testing.T) {
	repo := &stubAddressRepo{
		setErrs: []error{errors.New("connection reset")},
	}
	svc, err := NewService(repo, passthroughTxRunner{})
	require.NoError(t, err)

	err = svc.MakeCurrent(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 1, repo.setCalls)
}
