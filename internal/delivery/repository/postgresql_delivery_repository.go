// Package repository provides data persistence implementations for delivery entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/delivery/internal/database"
	"github.com/allisson/delivery/internal/delivery/domain"
	apperrors "github.com/allisson/delivery/internal/errors"
)

// PostgreSQLDeliveryRepository handles delivery persistence for PostgreSQL
type PostgreSQLDeliveryRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeliveryRepository creates a new PostgreSQLDeliveryRepository
func NewPostgreSQLDeliveryRepository(db *sql.DB) *PostgreSQLDeliveryRepository {
	return &PostgreSQLDeliveryRepository{
		db: db,
	}
}

// Create inserts a new delivery. The unique index on order_id maps duplicate
// inserts to ErrDeliveryExists, which is what makes redelivered order
// requests idempotent.
func (r *PostgreSQLDeliveryRepository) Create(ctx context.Context, delivery *domain.Delivery) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO deliveries (id, order_id, delivery_address, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		delivery.ID, delivery.OrderID, []byte(delivery.DeliveryAddress), delivery.Status)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDeliveryExists
		}
		return apperrors.Wrap(err, "failed to create delivery")
	}
	return nil
}

// GetByID retrieves a delivery by ID
func (r *PostgreSQLDeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Delivery, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, delivery_address, status, created_at, updated_at
			  FROM deliveries WHERE id = $1`

	return scanDelivery(querier.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a delivery by ID, locking the row for the
// caller's transaction. A concurrent transition blocks here until the lock
// holder commits, then observes the committed status instead of validating
// against a stale read.
func (r *PostgreSQLDeliveryRepository) GetByIDForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Delivery, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, delivery_address, status, created_at, updated_at
			  FROM deliveries WHERE id = $1
			  FOR UPDATE`

	return scanDelivery(querier.QueryRowContext(ctx, query, id))
}

// List retrieves all deliveries ordered by creation time descending
func (r *PostgreSQLDeliveryRepository) List(ctx context.Context) ([]*domain.Delivery, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, delivery_address, status, created_at, updated_at
			  FROM deliveries
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deliveries")
	}
	defer rows.Close() //nolint:errcheck

	var deliveries []*domain.Delivery
	for rows.Next() {
		var delivery domain.Delivery
		var address []byte

		err := rows.Scan(&delivery.ID, &delivery.OrderID, &address, &delivery.Status,
			&delivery.CreatedAt, &delivery.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan delivery")
		}
		delivery.DeliveryAddress = address

		deliveries = append(deliveries, &delivery)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list deliveries")
	}

	return deliveries, nil
}

// UpdateStatus sets the delivery status and returns the updated row.
func (r *PostgreSQLDeliveryRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.DeliveryStatus,
) (*domain.Delivery, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE deliveries
			  SET status = $1, updated_at = NOW()
			  WHERE id = $2
			  RETURNING id, order_id, delivery_address, status, created_at, updated_at`

	return scanDelivery(querier.QueryRowContext(ctx, query, status, id))
}

// CreateLog appends one row to the delivery audit trail
func (r *PostgreSQLDeliveryRepository) CreateLog(ctx context.Context, log *domain.DeliveryLog) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO delivery_logs (id, delivery_id, description, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, log.ID, log.DeliveryID, log.Description, log.Status)
	if err != nil {
		return apperrors.Wrap(err, "failed to create delivery log")
	}
	return nil
}

// ListLogsByDeliveryID retrieves a delivery's logs, newest first
func (r *PostgreSQLDeliveryRepository) ListLogsByDeliveryID(
	ctx context.Context,
	deliveryID uuid.UUID,
) ([]*domain.DeliveryLog, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, delivery_id, description, status, created_at, updated_at
			  FROM delivery_logs
			  WHERE delivery_id = $1
			  ORDER BY updated_at DESC`

	rows, err := querier.QueryContext(ctx, query, deliveryID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list delivery logs")
	}
	defer rows.Close() //nolint:errcheck

	var logs []*domain.DeliveryLog
	for rows.Next() {
		var log domain.DeliveryLog

		err := rows.Scan(&log.ID, &log.DeliveryID, &log.Description, &log.Status,
			&log.CreatedAt, &log.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan delivery log")
		}

		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list delivery logs")
	}

	return logs, nil
}

// scanDelivery scans a single delivery row, mapping sql.ErrNoRows to the
// domain not-found error.
func scanDelivery(row *sql.Row) (*domain.Delivery, error) {
	var delivery domain.Delivery
	var address []byte

	err := row.Scan(&delivery.ID, &delivery.OrderID, &address, &delivery.Status,
		&delivery.CreatedAt, &delivery.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan delivery")
	}
	delivery.DeliveryAddress = address

	return &delivery, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
