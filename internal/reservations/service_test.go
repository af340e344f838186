package reservations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

func newTestService(t *testing.T, repo *Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}))
	require.NoError(t, err)
	return svc
}

func seedTwoLineReservation(t *testing.T, repo *Repository) *models.Reservation {
	t.Helper()
	reservation := &models.Reservation{
		DeliveryZoneID: uuid.New(),
		Status:         enums.ReservationStatusPlaced,
		Items: []models.ReservationItem{
			{WineID: uuid.New(), RequestedQty: 6},
			{WineID: uuid.New(), RequestedQty: 12},
		},
	}
	require.NoError(t, repo.Create(context.Background(), reservation))
	return reservation
}

func TestApproveInFullMarksReservationApproved(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)
	reservation := seedTwoLineReservation(t, repo)

	updated, err := svc.Approve(context.Background(), reservation.ID, []ItemApproval{
		{ItemID: reservation.Items[0].ID, ApprovedQty: 6},
		{ItemID: reservation.Items[1].ID, ApprovedQty: 12},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusApproved, updated.Status)

	loaded, err := repo.FindByID(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusApproved, loaded.Status)
}

func TestApprovePartiallyMarksReservationPartlyApproved(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)
	reservation := seedTwoLineReservation(t, repo)

	updated, err := svc.Approve(context.Background(), reservation.ID, []ItemApproval{
		{ItemID: reservation.Items[0].ID, ApprovedQty: 6},
		{ItemID: reservation.Items[1].ID, ApprovedQty: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusPartlyApproved, updated.Status)

	effective := map[uuid.UUID]int{}
	for _, item := range updated.Items {
		effective[item.ID] = item.EffectiveQty()
	}
	assert.Equal(t, 6, effective[reservation.Items[0].ID])
	assert.Equal(t, 0, effective[reservation.Items[1].ID])
}

func TestApproveNothingDeclinesReservation(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)
	reservation := seedTwoLineReservation(t, repo)

	updated, err := svc.Approve(context.Background(), reservation.ID, []ItemApproval{
		{ItemID: reservation.Items[0].ID, ApprovedQty: 0},
		{ItemID: reservation.Items[1].ID, ApprovedQty: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusDeclined, updated.Status)
}

func TestApproveRejectsQuantityAboveRequested(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)
	reservation := seedTwoLineReservation(t, repo)

	_, err := svc.Approve(context.Background(), reservation.ID, []ItemApproval{
		{ItemID: reservation.Items[0].ID, ApprovedQty: 7},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestApproveRejectsForeignItem(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)
	reservation := seedTwoLineReservation(t, repo)

	_, err := svc.Approve(context.Background(), reservation.ID, []ItemApproval{
		{ItemID: uuid.New(), ApprovedQty: 1},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestApproveSettledReservationConflicts(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)
	reservation := seedTwoLineReservation(t, repo)
	require.NoError(t, repo.UpdateStatus(context.Background(), reservation.ID, enums.ReservationStatusConfirmed))

	_, err := svc.Approve(context.Background(), reservation.ID, []ItemApproval{
		{ItemID: reservation.Items[0].ID, ApprovedQty: 6},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestApproveUnknownReservation(t *testing.T) {
	repo := NewRepository(setupReservationTestDB(t))
	svc := newTestService(t, repo)

	_, err := svc.Approve(context.Background(), uuid.New(), []ItemApproval{{ItemID: uuid.New(), ApprovedQty: 1}})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
