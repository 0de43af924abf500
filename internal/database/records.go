package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"garagelog/internal/metrics"
	"garagelog/internal/models"

	"github.com/google/uuid"
)

const recordColumns = `id, owner_name, owner_phone_number, vehicle_model, vehicle_id,
	       service_date, service_type, description, mileage, cost,
	       next_service_date, mechanic_id`

// InsertRecord stores a new service record, assigning an id when absent.
func (db *DB) InsertRecord(ctx context.Context, rec *models.ServiceRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `INSERT INTO service_records (` + recordColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		rec.ID,
		rec.OwnerName,
		rec.OwnerPhoneNumber,
		rec.VehicleModel,
		rec.VehicleID,
		rec.ServiceDate.Format(time.RFC3339),
		rec.ServiceType,
		rec.Description,
		rec.Mileage,
		rec.Cost,
		nullableDate(rec.NextServiceDate),
		rec.MechanicID,
	)
	metrics.IncStoreOp("insert_record", err)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetRecord returns the record with the given id, or ErrNotFound.
func (db *DB) GetRecord(ctx context.Context, id string) (*models.ServiceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM service_records WHERE id = ?`
	rec, err := db.scanRecord(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// ListRecords returns all records, optionally filtered by exact vehicle id.
func (db *DB) ListRecords(ctx context.Context, vehicleID string) ([]models.ServiceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM service_records`
	var args []any
	if vehicleID != "" {
		query += ` WHERE vehicle_id = ?`
		args = append(args, vehicleID)
	}
	return db.queryRecords(ctx, query, args...)
}

// ListRecordsByModel returns records whose vehicle model contains the given
// fragment, case-insensitively. The match is unanchored: "City" also matches
// "Honda City VX".
func (db *DB) ListRecordsByModel(ctx context.Context, model string) ([]models.ServiceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM service_records
	          WHERE LOWER(vehicle_model) LIKE '%' || LOWER(?) || '%'`
	return db.queryRecords(ctx, query, model)
}

// UpdateRecord replaces the full record keyed by id in a single conditional
// statement. Returns ErrNotFound when no row matched; there is no separate
// existence check, so a concurrent delete cannot be silently overwritten.
func (db *DB) UpdateRecord(ctx context.Context, rec *models.ServiceRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	query := `UPDATE service_records SET
	              owner_name = ?,
	              owner_phone_number = ?,
	              vehicle_model = ?,
	              vehicle_id = ?,
	              service_date = ?,
	              service_type = ?,
	              description = ?,
	              mileage = ?,
	              cost = ?,
	              next_service_date = ?,
	              mechanic_id = ?
	          WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		rec.OwnerName,
		rec.OwnerPhoneNumber,
		rec.VehicleModel,
		rec.VehicleID,
		rec.ServiceDate.Format(time.RFC3339),
		rec.ServiceType,
		rec.Description,
		rec.Mileage,
		rec.Cost,
		nullableDate(rec.NextServiceDate),
		rec.MechanicID,
		rec.ID,
	)
	metrics.IncStoreOp("update_record", err)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRecord removes the record with the given id and returns how many
// rows were removed (0 or 1).
func (db *DB) DeleteRecord(ctx context.Context, id string) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM service_records WHERE id = ?`, id)
	metrics.IncStoreOp("delete_record", err)
	if err != nil {
		return 0, fmt.Errorf("delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete record rows affected: %w", err)
	}
	return affected, nil
}

// DeleteRecordsByModel removes every record whose vehicle model contains the
// fragment. Returns true when at least one row was removed.
func (db *DB) DeleteRecordsByModel(ctx context.Context, model string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM service_records WHERE LOWER(vehicle_model) LIKE '%' || LOWER(?) || '%'`, model)
	metrics.IncStoreOp("delete_records_by_model", err)
	if err != nil {
		return false, fmt.Errorf("delete records by model: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete records by model rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateCostByModel sets the cost on every record whose vehicle model
// contains the fragment. Returns true when at least one row was updated.
func (db *DB) UpdateCostByModel(ctx context.Context, model string, cost float64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE service_records SET cost = ? WHERE LOWER(vehicle_model) LIKE '%' || LOWER(?) || '%'`,
		cost, model)
	metrics.IncStoreOp("update_cost_by_model", err)
	if err != nil {
		return false, fmt.Errorf("update cost by model: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update cost by model rows affected: %w", err)
	}
	return affected > 0, nil
}

func (db *DB) queryRecords(ctx context.Context, query string, args ...any) ([]models.ServiceRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []models.ServiceRecord
	for rows.Next() {
		rec, err := db.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// scanRecord tolerates NULL text columns: rows migrated from the legacy
// schema carry NULLs where the Go layer always writes empty strings.
// Unparseable dates degrade to unset with a warning rather than failing
// the scan; one bad legacy row must not take a whole listing down.
func (db *DB) scanRecord(r rowScanner) (*models.ServiceRecord, error) {
	var (
		rec                                        models.ServiceRecord
		ownerName, ownerPhone, model, vehicleID    sql.NullString
		serviceDate, serviceType, desc, mechanicID sql.NullString
		mileage                                    sql.NullInt64
		cost                                       sql.NullFloat64
		nextDate                                   sql.NullString
	)
	err := r.Scan(
		&rec.ID,
		&ownerName,
		&ownerPhone,
		&model,
		&vehicleID,
		&serviceDate,
		&serviceType,
		&desc,
		&mileage,
		&cost,
		&nextDate,
		&mechanicID,
	)
	if err != nil {
		return nil, err
	}

	rec.OwnerName = ownerName.String
	rec.OwnerPhoneNumber = ownerPhone.String
	rec.VehicleModel = model.String
	rec.VehicleID = vehicleID.String
	rec.ServiceType = serviceType.String
	rec.Description = desc.String
	rec.Mileage = mileage.Int64
	rec.Cost = cost.Float64
	rec.MechanicID = mechanicID.String

	if serviceDate.Valid && serviceDate.String != "" {
		t, err := parseStoredDate(serviceDate.String)
		if err != nil {
			db.logger.Warn().Str("record_id", rec.ID).Str("service_date", serviceDate.String).
				Msg("unparseable service_date, leaving unset")
		} else {
			rec.ServiceDate = t
		}
	}
	if nextDate.Valid && nextDate.String != "" {
		t, err := parseStoredDate(nextDate.String)
		if err != nil {
			db.logger.Warn().Str("record_id", rec.ID).Str("next_service_date", nextDate.String).
				Msg("unparseable next_service_date, leaving unset")
		} else {
			rec.NextServiceDate = &t
		}
	}
	return &rec, nil
}

// parseStoredDate accepts the RFC3339 form this store writes, the
// offset-less ISO form the previous system wrote (datetime.isoformat()),
// and the bare YYYY-MM-DD form older rows may carry.
func parseStoredDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// isoformat() emits fractional seconds only when present.
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t, nil
	}
	return time.Parse(models.DateLayout, s)
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
