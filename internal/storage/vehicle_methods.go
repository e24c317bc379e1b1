package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
)

// ========== Vehicle Methods ==========

const vehicleColumns = `id, created_at, updated_at, vehicle_number, vehicle_type, driver_name,
               company, purpose, user_type, tenant_id, status, created_by,
               check_in_time, check_out_time`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(
		&v.ID, &v.CreatedAt, &v.UpdatedAt, &v.VehicleNumber, &v.VehicleType, &v.DriverName,
		&v.Company, &v.Purpose, &v.UserType, &v.TenantID, &v.Status, &v.CreatedBy,
		&v.CheckInTime, &v.CheckOutTime,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

// CreateVehicle creates a vehicle. The open-number index rejects a second
// unclosed record for the same plate.
func (s *PostgresStore) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	query := `
        INSERT INTO vehicles (` + vehicleColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.getDB().ExecContext(ctx, query,
		vehicle.ID, vehicle.CreatedAt, vehicle.UpdatedAt, vehicle.VehicleNumber,
		vehicle.VehicleType, vehicle.DriverName, vehicle.Company, vehicle.Purpose,
		vehicle.UserType, vehicle.TenantID, vehicle.Status, vehicle.CreatedBy,
		vehicle.CheckInTime, vehicle.CheckOutTime,
	)
	return mapErr(err)
}

// GetVehicle gets a vehicle by ID
func (s *PostgresStore) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

// UpdateVehicle updates a vehicle
func (s *PostgresStore) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE vehicles SET
            updated_at = $2, vehicle_number = $3, vehicle_type = $4, driver_name = $5,
            company = $6, purpose = $7, user_type = $8, tenant_id = $9, status = $10,
            created_by = $11, check_in_time = $12, check_out_time = $13
        WHERE id = $1`

	res, err := s.getDB().ExecContext(ctx, query,
		vehicle.ID, vehicle.UpdatedAt, vehicle.VehicleNumber, vehicle.VehicleType,
		vehicle.DriverName, vehicle.Company, vehicle.Purpose, vehicle.UserType,
		vehicle.TenantID, vehicle.Status, vehicle.CreatedBy, vehicle.CheckInTime,
		vehicle.CheckOutTime,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// DeleteVehicle deletes a vehicle
func (s *PostgresStore) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	res, err := s.getDB().ExecContext(ctx, "DELETE FROM vehicles WHERE id = $1", id)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// FindOpenVehicleByNumber finds the unclosed record holding a plate
func (s *PostgresStore) FindOpenVehicleByNumber(ctx context.Context, number string) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles
        WHERE upper(vehicle_number) = upper($1) AND check_out_time IS NULL
        LIMIT 1`
	return scanVehicle(s.getDB().QueryRowContext(ctx, query, number))
}

func vehicleWhere(f VehicleFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.TenantID != nil {
		w.add("tenant_id = ?", *f.TenantID)
	}
	w.statuses("status", statusStrings(f.Statuses))
	return w
}

// ListVehicles lists vehicles matching the filter, newest first
func (s *PostgresStore) ListVehicles(ctx context.Context, filter VehicleFilter) ([]*models.Vehicle, error) {
	w := vehicleWhere(filter)
	rows, err := s.getDB().QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles`+w.String()+` ORDER BY created_at DESC`,
		w.args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// CountVehicles counts vehicles matching the filter
func (s *PostgresStore) CountVehicles(ctx context.Context, filter VehicleFilter) (int64, error) {
	w := vehicleWhere(filter)
	var count int64
	err := s.getDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`+w.String(), w.args...).Scan(&count)
	return count, err
}

// ========== Vehicle History Methods ==========

const vehicleHistoryColumns = `id, created_at, updated_at, vehicle_id, vehicle_number, vehicle_type,
               driver_name, company, purpose, user_type, tenant_id, status, created_by,
               check_in_time, check_out_time`

func scanVehicleHistory(row interface{ Scan(...interface{}) error }) (*models.VehicleHistory, error) {
	h := &models.VehicleHistory{}
	err := row.Scan(
		&h.ID, &h.CreatedAt, &h.UpdatedAt, &h.VehicleID, &h.VehicleNumber, &h.VehicleType,
		&h.DriverName, &h.Company, &h.Purpose, &h.UserType, &h.TenantID, &h.Status,
		&h.CreatedBy, &h.CheckInTime, &h.CheckOutTime,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return h, nil
}

// CreateVehicleHistory opens a ledger row
func (s *PostgresStore) CreateVehicleHistory(ctx context.Context, entry *models.VehicleHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
        INSERT INTO vehicle_history (` + vehicleHistoryColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.UpdatedAt, entry.VehicleID, entry.VehicleNumber,
		entry.VehicleType, entry.DriverName, entry.Company, entry.Purpose, entry.UserType,
		entry.TenantID, entry.Status, entry.CreatedBy, entry.CheckInTime, entry.CheckOutTime,
	)
	return mapErr(err)
}

// UpdateVehicleHistory mutates a ledger row in place
func (s *PostgresStore) UpdateVehicleHistory(ctx context.Context, entry *models.VehicleHistory) error {
	entry.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE vehicle_history SET
            updated_at = $2, status = $3, check_in_time = $4, check_out_time = $5
        WHERE id = $1`

	res, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.UpdatedAt, entry.Status, entry.CheckInTime, entry.CheckOutTime,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// FindOpenVehicleHistory finds the vehicle's ledger row without a check-out
func (s *PostgresStore) FindOpenVehicleHistory(ctx context.Context, vehicleID uuid.UUID) (*models.VehicleHistory, error) {
	query := `SELECT ` + vehicleHistoryColumns + ` FROM vehicle_history
        WHERE vehicle_id = $1 AND check_out_time IS NULL
        ORDER BY created_at DESC LIMIT 1`
	return scanVehicleHistory(s.getDB().QueryRowContext(ctx, query, vehicleID))
}

// ListVehicleHistoryPage pages ledger rows by check-in time, newest first
func (s *PostgresStore) ListVehicleHistoryPage(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*models.VehicleHistory, int64, error) {
	w := &whereBuilder{}
	if filter.SubjectID != nil {
		w.add("vehicle_id = ?", *filter.SubjectID)
	}
	if filter.TenantID != nil {
		w.add("tenant_id = ?", *filter.TenantID)
	}
	w.statuses("status", statusStrings(filter.Statuses))
	w.add("check_in_time BETWEEN ? AND ?", filter.Start, filter.End)

	var count int64
	err := s.getDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicle_history"+w.String(), w.args...).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + vehicleHistoryColumns + ` FROM vehicle_history` + w.String() +
		` ORDER BY check_in_time DESC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	rows, err := s.getDB().QueryContext(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*models.VehicleHistory
	for rows.Next() {
		h, err := scanVehicleHistory(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, h)
	}
	return entries, count, rows.Err()
}
