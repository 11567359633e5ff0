// Package repository provides data persistence for delivery addresses.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/delivery/internal/address/domain"
	"github.com/allisson/delivery/internal/database"

	apperrors "github.com/allisson/delivery/internal/errors"
)

// PostgreSQLAddressRepository handles delivery address persistence for PostgreSQL
type PostgreSQLAddressRepository struct {
	db *sql.DB
}

// NewPostgreSQLAddressRepository creates a new PostgreSQLAddressRepository
func NewPostgreSQLAddressRepository(db *sql.DB) *PostgreSQLAddressRepository {
	return &PostgreSQLAddressRepository{
		db: db,
	}
}

const addressColumns = `id, patient_id, recipient_name, phone_number, street_address,
	city, state, postal_code, country, is_default, created_at, updated_at`

// Create inserts a new delivery address and fills in the generated ID and
// timestamps.
func (r *PostgreSQLAddressRepository) Create(ctx context.Context, address *domain.DeliveryAddress) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO delivery_addresses
			  (patient_id, recipient_name, phone_number, street_address, city, state,
			   postal_code, country, is_default, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  RETURNING id, created_at, updated_at`

	err := querier.QueryRowContext(ctx, query,
		address.PatientID, address.RecipientName, address.PhoneNumber,
		address.StreetAddress, address.City, address.State,
		address.PostalCode, address.Country, address.IsDefault,
	).Scan(&address.ID, &address.CreatedAt, &address.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create delivery address")
	}
	return nil
}

// GetByID retrieves a delivery address by ID regardless of owner
func (r *PostgreSQLAddressRepository) GetByID(ctx context.Context, id int64) (*domain.DeliveryAddress, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + addressColumns + ` FROM delivery_addresses WHERE id = $1`

	return r.scanAddress(querier.QueryRowContext(ctx, query, id))
}

// GetByIDForPatient retrieves a delivery address scoped to its owner
func (r *PostgreSQLAddressRepository) GetByIDForPatient(
	ctx context.Context,
	id, patientID int64,
) (*domain.DeliveryAddress, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + addressColumns + ` FROM delivery_addresses WHERE id = $1 AND patient_id = $2`

	return r.scanAddress(querier.QueryRowContext(ctx, query, id, patientID))
}

// ListByPatientID retrieves all addresses for a patient, default first then
// newest first.
func (r *PostgreSQLAddressRepository) ListByPatientID(
	ctx context.Context,
	patientID int64,
) ([]*domain.DeliveryAddress, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + addressColumns + ` FROM delivery_addresses
			  WHERE patient_id = $1
			  ORDER BY is_default DESC, created_at DESC`

	rows, err := querier.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list delivery addresses")
	}
	defer rows.Close()

	var addresses []*domain.DeliveryAddress
	for rows.Next() {
		var address domain.DeliveryAddress
		err := rows.Scan(
			&address.ID, &address.PatientID, &address.RecipientName, &address.PhoneNumber,
			&address.StreetAddress, &address.City, &address.State, &address.PostalCode,
			&address.Country, &address.IsDefault, &address.CreatedAt, &address.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan delivery address")
		}
		addresses = append(addresses, &address)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate delivery addresses")
	}

	return addresses, nil
}

// Update persists the mutable fields of an address scoped to its owner
func (r *PostgreSQLAddressRepository) Update(ctx context.Context, address *domain.DeliveryAddress) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE delivery_addresses
			  SET recipient_name = $1, phone_number = $2, street_address = $3, city = $4,
			      state = $5, postal_code = $6, country = $7, is_default = $8, updated_at = NOW()
			  WHERE id = $9 AND patient_id = $10
			  RETURNING updated_at`

	err := querier.QueryRowContext(ctx, query,
		address.RecipientName, address.PhoneNumber, address.StreetAddress, address.City,
		address.State, address.PostalCode, address.Country, address.IsDefault,
		address.ID, address.PatientID,
	).Scan(&address.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAddressNotFound
		}
		return apperrors.Wrap(err, "failed to update delivery address")
	}
	return nil
}

// Delete removes an address scoped to its owner
func (r *PostgreSQLAddressRepository) Delete(ctx context.Context, id, patientID int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM delivery_addresses WHERE id = $1 AND patient_id = $2`

	result, err := querier.ExecContext(ctx, query, id, patientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete delivery address")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check deleted rows")
	}
	if affected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

// ClearDefault unsets the default flag on all of a patient's addresses
func (r *PostgreSQLAddressRepository) ClearDefault(ctx context.Context, patientID int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE delivery_addresses SET is_default = FALSE, updated_at = NOW()
			  WHERE patient_id = $1 AND is_default = TRUE`

	if _, err := querier.ExecContext(ctx, query, patientID); err != nil {
		return apperrors.Wrap(err, "failed to clear default delivery address")
	}
	return nil
}

func (r *PostgreSQLAddressRepository) scanAddress(row *sql.Row) (*domain.DeliveryAddress, error) {
	var address domain.DeliveryAddress
	err := row.Scan(
		&address.ID, &address.PatientID, &address.RecipientName, &address.PhoneNumber,
		&address.StreetAddress, &address.City, &address.State, &address.PostalCode,
		&address.Country, &address.IsDefault, &address.CreatedAt, &address.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get delivery address")
	}
	return &address, nil
}
