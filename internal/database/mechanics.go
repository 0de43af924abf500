package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"garagelog/internal/metrics"
	"garagelog/internal/models"

	"github.com/google/uuid"
)

const mechanicColumns = `id, name, specialization, contact_number, experience_years`

// CreateMechanic stores a new mechanic, assigning an id when absent.
func (db *DB) CreateMechanic(ctx context.Context, m *models.Mechanic) error {
	if m == nil {
		return fmt.Errorf("mechanic is nil")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `INSERT INTO mechanics (` + mechanicColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		m.ID,
		m.Name,
		m.Specialization,
		m.ContactNumber,
		m.ExperienceYears,
	)
	metrics.IncStoreOp("create_mechanic", err)
	if err != nil {
		return fmt.Errorf("create mechanic: %w", err)
	}
	return nil
}

// GetMechanic returns the mechanic with the given id, or ErrNotFound.
func (db *DB) GetMechanic(ctx context.Context, id string) (*models.Mechanic, error) {
	query := `SELECT ` + mechanicColumns + ` FROM mechanics WHERE id = ?`
	m, err := scanMechanic(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mechanic: %w", err)
	}
	return m, nil
}

// ListMechanics returns the full roster in store order.
func (db *DB) ListMechanics(ctx context.Context) ([]models.Mechanic, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+mechanicColumns+` FROM mechanics`)
	if err != nil {
		return nil, fmt.Errorf("list mechanics: %w", err)
	}
	defer rows.Close()

	var mechanics []models.Mechanic
	for rows.Next() {
		m, err := scanMechanic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mechanic: %w", err)
		}
		mechanics = append(mechanics, *m)
	}
	return mechanics, rows.Err()
}

// UpdateMechanic replaces the full mechanic keyed by id in a single
// conditional statement. Returns ErrNotFound when no row matched.
func (db *DB) UpdateMechanic(ctx context.Context, m *models.Mechanic) error {
	if m == nil {
		return fmt.Errorf("mechanic is nil")
	}
	query := `UPDATE mechanics
	          SET name = ?, specialization = ?, contact_number = ?, experience_years = ?
	          WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		m.Name,
		m.Specialization,
		m.ContactNumber,
		m.ExperienceYears,
		m.ID,
	)
	metrics.IncStoreOp("update_mechanic", err)
	if err != nil {
		return fmt.Errorf("update mechanic: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update mechanic rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMechanic removes the mechanic with the given id. Returns true when
// a row was removed. Service records referencing the mechanic are left
// untouched: the reference is weak and dangling ids are expected.
func (db *DB) DeleteMechanic(ctx context.Context, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM mechanics WHERE id = ?`, id)
	metrics.IncStoreOp("delete_mechanic", err)
	if err != nil {
		return false, fmt.Errorf("delete mechanic: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete mechanic rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanMechanic(r rowScanner) (*models.Mechanic, error) {
	var m models.Mechanic
	if err := r.Scan(&m.ID, &m.Name, &m.Specialization, &m.ContactNumber, &m.ExperienceYears); err != nil {
		return nil, err
	}
	return &m, nil
}
