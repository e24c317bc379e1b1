package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
)

// ========== Staff Methods ==========

const staffColumns = `id, created_at, updated_at, employee_code, name, mobile_number, address,
               id_proof, status, created_by, check_in_time, check_out_time`

func scanStaff(row interface{ Scan(...interface{}) error }) (*models.Staff, error) {
	st := &models.Staff{}
	err := row.Scan(
		&st.ID, &st.CreatedAt, &st.UpdatedAt, &st.EmployeeCode, &st.Name, &st.MobileNumber,
		&st.Address, &st.IDProof, &st.Status, &st.CreatedBy, &st.CheckInTime, &st.CheckOutTime,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return st, nil
}

// CreateStaff creates a staff member
func (s *PostgresStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now

	query := `
        INSERT INTO staff (` + staffColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.getDB().ExecContext(ctx, query,
		staff.ID, staff.CreatedAt, staff.UpdatedAt, staff.EmployeeCode, staff.Name,
		staff.MobileNumber, staff.Address, staff.IDProof, staff.Status, staff.CreatedBy,
		staff.CheckInTime, staff.CheckOutTime,
	)
	return mapErr(err)
}

// GetStaff gets a staff member by ID
func (s *PostgresStore) GetStaff(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	return scanStaff(row)
}

// UpdateStaff updates a staff member
func (s *PostgresStore) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE staff SET
            updated_at = $2, employee_code = $3, name = $4, mobile_number = $5,
            address = $6, id_proof = $7, status = $8, created_by = $9,
            check_in_time = $10, check_out_time = $11
        WHERE id = $1`

	res, err := s.getDB().ExecContext(ctx, query,
		staff.ID, staff.UpdatedAt, staff.EmployeeCode, staff.Name, staff.MobileNumber,
		staff.Address, staff.IDProof, staff.Status, staff.CreatedBy,
		staff.CheckInTime, staff.CheckOutTime,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// DeleteStaff deletes a staff member
func (s *PostgresStore) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	res, err := s.getDB().ExecContext(ctx, "DELETE FROM staff WHERE id = $1", id)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// FindOpenStaffByMobile finds the unclosed record holding a mobile number
func (s *PostgresStore) FindOpenStaffByMobile(ctx context.Context, mobile string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff
        WHERE mobile_number = $1 AND check_out_time IS NULL
        LIMIT 1`
	return scanStaff(s.getDB().QueryRowContext(ctx, query, mobile))
}

// ListStaff lists all staff by name
func (s *PostgresStore) ListStaff(ctx context.Context) ([]*models.Staff, error) {
	rows, err := s.getDB().QueryContext(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []*models.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// ========== Staff History Methods ==========

const staffHistoryColumns = `id, created_at, updated_at, staff_id, employee_code, name, mobile_number,
               address, id_proof, status, created_by, check_in_time, check_out_time`

func scanStaffHistory(row interface{ Scan(...interface{}) error }) (*models.StaffHistory, error) {
	h := &models.StaffHistory{}
	err := row.Scan(
		&h.ID, &h.CreatedAt, &h.UpdatedAt, &h.StaffID, &h.EmployeeCode, &h.Name,
		&h.MobileNumber, &h.Address, &h.IDProof, &h.Status, &h.CreatedBy,
		&h.CheckInTime, &h.CheckOutTime,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return h, nil
}

// CreateStaffHistory opens a ledger row
func (s *PostgresStore) CreateStaffHistory(ctx context.Context, entry *models.StaffHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
        INSERT INTO staff_history (` + staffHistoryColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.UpdatedAt, entry.StaffID, entry.EmployeeCode,
		entry.Name, entry.MobileNumber, entry.Address, entry.IDProof, entry.Status,
		entry.CreatedBy, entry.CheckInTime, entry.CheckOutTime,
	)
	return mapErr(err)
}

// UpdateStaffHistory mutates a ledger row in place
func (s *PostgresStore) UpdateStaffHistory(ctx context.Context, entry *models.StaffHistory) error {
	entry.UpdatedAt = time.Now().UTC()

	res, err := s.getDB().ExecContext(ctx,
		`UPDATE staff_history SET updated_at = $2, status = $3, check_in_time = $4, check_out_time = $5 WHERE id = $1`,
		entry.ID, entry.UpdatedAt, entry.Status, entry.CheckInTime, entry.CheckOutTime,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// FindOpenStaffHistory finds the staff member's ledger row without a check-out
func (s *PostgresStore) FindOpenStaffHistory(ctx context.Context, staffID uuid.UUID) (*models.StaffHistory, error) {
	query := `SELECT ` + staffHistoryColumns + ` FROM staff_history
        WHERE staff_id = $1 AND check_out_time IS NULL
        ORDER BY created_at DESC LIMIT 1`
	return scanStaffHistory(s.getDB().QueryRowContext(ctx, query, staffID))
}

// ListStaffHistoryPage pages ledger rows by check-in time, newest first
func (s *PostgresStore) ListStaffHistoryPage(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*models.StaffHistory, int64, error) {
	w := &whereBuilder{}
	if filter.SubjectID != nil {
		w.add("staff_id = ?", *filter.SubjectID)
	}
	w.statuses("status", statusStrings(filter.Statuses))
	w.add("check_in_time BETWEEN ? AND ?", filter.Start, filter.End)

	var count int64
	err := s.getDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM staff_history"+w.String(), w.args...).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + staffHistoryColumns + ` FROM staff_history` + w.String() +
		` ORDER BY check_in_time DESC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	rows, err := s.getDB().QueryContext(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*models.StaffHistory
	for rows.Next() {
		h, err := scanStaffHistory(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, h)
	}
	return entries, count, rows.Err()
}
