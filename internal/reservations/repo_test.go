package reservations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
)

func setupReservationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  delivery_zone_id TEXT NOT NULL,
  pallet_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending_payment',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS reservation_items (
  id TEXT PRIMARY KEY,
  reservation_id TEXT NOT NULL,
  wine_id TEXT NOT NULL,
  requested_qty INTEGER NOT NULL,
  approved_qty INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedReservation(t *testing.T, repo *Repository, qty int) *models.Reservation {
	t.Helper()
	reservation := &models.Reservation{
		DeliveryZoneID: uuid.New(),
		Status:         enums.ReservationStatusPendingPayment,
		Items: []models.ReservationItem{
			{WineID: uuid.New(), RequestedQty: qty},
		},
	}
	require.NoError(t, repo.Create(context.Background(), reservation))
	return reservation
}

func TestCreateAssignsIDsAndLinksItems(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))

	reservation := seedReservation(t, repo, 6)
	require.NotEqual(t, uuid.Nil, reservation.ID)

	loaded, err := repo.FindByID(context.Background(), reservation.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, reservation.ID, loaded.Items[0].ReservationID)
	assert.NotEqual(t, uuid.Nil, loaded.Items[0].ID)
	assert.Equal(t, 6, loaded.Items[0].EffectiveQty())
}

func TestUpdateStatus(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	reservation := seedReservation(t, repo, 6)

	require.NoError(t, repo.UpdateStatus(context.Background(), reservation.ID, enums.ReservationStatusConfirmed))

	loaded, err := repo.FindByID(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusConfirmed, loaded.Status)
}

func TestUpdateStatusUnknownReservation(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))

	err := repo.UpdateStatus(context.Background(), uuid.New(), enums.ReservationStatusConfirmed)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApproveItemCapsAtRequestedQty(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	reservation := seedReservation(t, repo, 6)
	itemID := reservation.Items[0].ID

	require.NoError(t, repo.ApproveItem(context.Background(), itemID, 3))

	loaded, err := repo.FindByID(context.Background(), reservation.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Items[0].ApprovedQty)
	assert.Equal(t, 3, *loaded.Items[0].ApprovedQty)
	assert.Equal(t, 3, loaded.Items[0].EffectiveQty())

	// more than requested never sticks
	err = repo.ApproveItem(context.Background(), itemID, 12)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.ApproveItem(context.Background(), itemID, -1)
	assert.Error(t, err)
}
