package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
)

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS user_addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  pincode TEXT NOT NULL,
  is_current INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_user_addresses_one_current ON user_addresses(user_id) WHERE is_current;`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func insertAddress(t *testing.T, db *gorm.DB, userID uuid.UUID, current bool) models.UserAddress {
	t.Helper()

	row := models.UserAddress{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "Ravi Kumar",
		Phone:     "9876543210",
		Line1:     "12 MG Road",
		City:      "Bengaluru",
		State:     "Karnataka",
		Pincode:   "560001",
		IsCurrent: current,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func countCurrent(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_current = ?", userID, true).
		Count(&count).Error)
	return count
}

func TestMakeCurrentLeavesExactlyOneCurrent(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db})
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()

	insertAddress(t, db, userID, true)
	second := insertAddress(t, db, userID, false)
	third := insertAddress(t, db, userID, false)

	require.NoError(t, svc.MakeCurrent(ctx, userID, third.ID))
	assert.Equal(t, int64(1), countCurrent(t, db, userID))

	var reloaded models.UserAddress
	require.NoError(t, db.First(&reloaded, "id = ?", third.ID).Error)
	assert.True(t, reloaded.IsCurrent)

	// Switching again still leaves exactly one.
	require.NoError(t, svc.MakeCurrent(ctx, userID, second.ID))
	assert.Equal(t, int64(1), countCurrent(t, db, userID))
}

func TestMakeCurrentForeignAddressRollsBack(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db})
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	intruder := uuid.New()
	mine := insertAddress(t, db, owner, true)
	foreign := insertAddress(t, db, intruder, true)

	err = svc.MakeCurrent(ctx, owner, foreign.ID)
	require.Error(t, err)

	// The rollback keeps the owner's original current flag in place.
	var reloaded models.UserAddress
	require.NoError(t, db.First(&reloaded, "id = ?", mine.ID).Error)
	assert.True(t, reloaded.IsCurrent)
	assert.Equal(t, int64(1), countCurrent(t, db, owner))
	assert.Equal(t, int64(1), countCurrent(t, db, intruder))
}

func TestCreateFirstAddressBecomesCurrent(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db})
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	first, err := svc.Create(ctx, userID, AddressInput{
		Name:    "Ravi Kumar",
		Phone:   "9876543210",
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	})
	require.NoError(t, err)
	assert.True(t, first.IsCurrent)

	second, err := svc.Create(ctx, userID, AddressInput{
		Name:    "Ravi Kumar",
		Phone:   "9876543210",
		Line1:   "44 Residency Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560025",
	})
	require.NoError(t, err)
	assert.False(t, second.IsCurrent)
	assert.Equal(t, int64(1), countCurrent(t, db, userID))
}

func TestDeleteMissingAddress(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
}

func TestUpdateRewritesFields(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db})
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	row := insertAddress(t, db, userID, true)

	updated, err := svc.Update(ctx, userID, row.ID, AddressInput{
		Name:    "R. Kumar",
		Phone:   "9123456789",
		Line1:   "7 Brigade Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560025",
	})
	require.NoError(t, err)
	assert.Equal(t, "7 Brigade Road", updated.Line1)
	assert.True(t, updated.IsCurrent, "current flag must survive an edit")
}

func TestSchemaRejectsSecondCurrentRow(t *testing.T) {
	db := setupAddressTestDB(t)
	userID := uuid.New()

	insertAddress(t, db, userID, true)

	row := models.UserAddress{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "A. Verma",
		Phone:     "9000000000",
		Line1:     "1 MG Road",
		City:      "Pune",
		State:     "Maharashtra",
		Pincode:   "411001",
		IsCurrent: true,
	}
	err := db.Create(&row).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}
