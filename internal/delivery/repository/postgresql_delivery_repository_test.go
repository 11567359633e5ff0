package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/delivery/internal/database"
	"github.com/allisson/delivery/internal/delivery/domain"
	apperrors "github.com/allisson/delivery/internal/errors"
	"github.com/allisson/delivery/internal/testutil"
)

func testDelivery(orderID int64) *domain.Delivery {
	return &domain.Delivery{
		ID:              uuid.Must(uuid.NewV7()),
		OrderID:         orderID,
		DeliveryAddress: json.RawMessage(`{"street_address":"742 Evergreen Terrace","city":"Springfield"}`),
		Status:          domain.DeliveryStatusPreparing,
	}
}

func TestNewPostgreSQLDeliveryRepository(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestPostgreSQLDeliveryRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	delivery := testDelivery(1001)

	err := repo.Create(ctx, delivery)
	assert.NoError(t, err)

	// Verify the delivery was created
	created, err := repo.GetByID(ctx, delivery.ID)
	assert.NoError(t, err)
	assert.Equal(t, delivery.ID, created.ID)
	assert.Equal(t, delivery.OrderID, created.OrderID)
	assert.JSONEq(t, string(delivery.DeliveryAddress), string(created.DeliveryAddress))
	assert.Equal(t, domain.DeliveryStatusPreparing, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
}

func TestPostgreSQLDeliveryRepository_Create_DuplicateOrderID(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	first := testDelivery(2001)
	err := repo.Create(ctx, first)
	require.NoError(t, err)

	// Same order ID, new delivery ID
	second := testDelivery(2001)
	err = repo.Create(ctx, second)
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, domain.ErrDeliveryExists))
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestPostgreSQLDeliveryRepository_GetByID_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	delivery, err := repo.GetByID(ctx, uuid.Must(uuid.NewV7()))
	assert.Error(t, err)
	assert.Nil(t, delivery)
	assert.True(t, apperrors.Is(err, domain.ErrDeliveryNotFound))
}

func TestPostgreSQLDeliveryRepository_GetByIDForUpdate(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	txManager := database.NewTxManager(db)
	ctx := context.Background()

	delivery := testDelivery(2501)
	require.NoError(t, repo.Create(ctx, delivery))

	err := txManager.WithTx(ctx, func(ctx context.Context) error {
		locked, err := repo.GetByIDForUpdate(ctx, delivery.ID)
		require.NoError(t, err)
		assert.Equal(t, delivery.ID, locked.ID)
		assert.Equal(t, domain.DeliveryStatusPreparing, locked.Status)
		return nil
	})
	assert.NoError(t, err)

	notFound, err := repo.GetByIDForUpdate(ctx, uuid.Must(uuid.NewV7()))
	assert.Error(t, err)
	assert.Nil(t, notFound)
	assert.True(t, apperrors.Is(err, domain.ErrDeliveryNotFound))
}

func TestPostgreSQLDeliveryRepository_List(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	first := testDelivery(3001)
	second := testDelivery(3002)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	deliveries, err := repo.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, deliveries, 2)

	// Newest first
	ids := []uuid.UUID{deliveries[0].ID, deliveries[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestPostgreSQLDeliveryRepository_List_Empty(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)

	deliveries, err := repo.List(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, deliveries)
}

func TestPostgreSQLDeliveryRepository_UpdateStatus(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	delivery := testDelivery(4001)
	require.NoError(t, repo.Create(ctx, delivery))

	updated, err := repo.UpdateStatus(ctx, delivery.ID, domain.DeliveryStatusEnRoute)
	assert.NoError(t, err)
	assert.Equal(t, delivery.ID, updated.ID)
	assert.Equal(t, domain.DeliveryStatusEnRoute, updated.Status)

	// Verify persisted
	fetched, err := repo.GetByID(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusEnRoute, fetched.Status)
}

func TestPostgreSQLDeliveryRepository_UpdateStatus_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)

	updated, err := repo.UpdateStatus(context.Background(), uuid.Must(uuid.NewV7()), domain.DeliveryStatusEnRoute)
	assert.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, apperrors.Is(err, domain.ErrDeliveryNotFound))
}

func TestPostgreSQLDeliveryRepository_CreateLog(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	delivery := testDelivery(5001)
	require.NoError(t, repo.Create(ctx, delivery))

	log := &domain.DeliveryLog{
		ID:          uuid.Must(uuid.NewV7()),
		DeliveryID:  delivery.ID,
		Description: "courier picked up the package",
		Status:      domain.DeliveryStatusEnRoute,
	}

	err := repo.CreateLog(ctx, log)
	assert.NoError(t, err)

	logs, err := repo.ListLogsByDeliveryID(ctx, delivery.ID)
	assert.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, log.ID, logs[0].ID)
	assert.Equal(t, log.Description, logs[0].Description)
	assert.Equal(t, domain.DeliveryStatusEnRoute, logs[0].Status)
	assert.False(t, logs[0].CreatedAt.IsZero())
}

func TestPostgreSQLDeliveryRepository_ListLogsByDeliveryID_Empty(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	delivery := testDelivery(6001)
	require.NoError(t, repo.Create(ctx, delivery))

	logs, err := repo.ListLogsByDeliveryID(ctx, delivery.ID)
	assert.NoError(t, err)
	assert.Empty(t, logs)
}

func TestPostgreSQLDeliveryRepository_DeleteCascadesLogs(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLDeliveryRepository(db)
	ctx := context.Background()

	delivery := testDelivery(7001)
	require.NoError(t, repo.Create(ctx, delivery))

	log := &domain.DeliveryLog{
		ID:          uuid.Must(uuid.NewV7()),
		DeliveryID:  delivery.ID,
		Description: "preparing order",
		Status:      domain.DeliveryStatusPreparing,
	}
	require.NoError(t, repo.CreateLog(ctx, log))

	_, err := db.ExecContext(ctx, "DELETE FROM deliveries WHERE id = $1", delivery.ID)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM delivery_logs WHERE delivery_id = $1", delivery.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "logs should be removed with their delivery")
}
