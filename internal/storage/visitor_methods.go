package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/smartsecurity/access-register/internal/models"
)

// ========== Visitor Methods ==========

const visitorColumns = `v.id, v.created_at, v.updated_at, v.visitor_name, v.mobile_number,
               v.visit_type, v.id_proof, v.image_url, v.visit_date, v.status, v.tenant_id,
               v.created_by, v.approved_by, v.rejection_remarks, v.check_in_time, v.check_out_time,
               ARRAY(SELECT a.admin_id::text FROM visitor_admins a WHERE a.visitor_id = v.id ORDER BY a.admin_id)`

func scanVisitor(row interface{ Scan(...interface{}) error }) (*models.Visitor, error) {
	v := &models.Visitor{}
	var admins pq.StringArray
	err := row.Scan(
		&v.ID, &v.CreatedAt, &v.UpdatedAt, &v.VisitorName, &v.MobileNumber,
		&v.VisitType, &v.IDProof, &v.ImageURL, &v.VisitDate, &v.Status, &v.TenantID,
		&v.CreatedBy, &v.ApprovedBy, &v.RejectionRemarks, &v.CheckInTime, &v.CheckOutTime,
		&admins,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	for _, a := range admins {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, err
		}
		v.AssignedAdmins = append(v.AssignedAdmins, id)
	}
	return v, nil
}

// CreateVisitor creates a visitor together with its admin assignment in one transaction
func (s *PostgresStore) CreateVisitor(ctx context.Context, visitor *models.Visitor) error {
	if visitor.ID == uuid.Nil {
		visitor.ID = uuid.New()
	}
	now := time.Now().UTC()
	visitor.CreatedAt = now
	visitor.UpdatedAt = now

	query := `
        INSERT INTO visitors (
            id, created_at, updated_at, visitor_name, mobile_number, visit_type,
            id_proof, image_url, visit_date, status, tenant_id, created_by,
            approved_by, rejection_remarks, check_in_time, check_out_time
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
        )`

	return s.inTx(ctx, func(tx *PostgresStore) error {
		_, err := tx.getDB().ExecContext(ctx, query,
			visitor.ID, visitor.CreatedAt, visitor.UpdatedAt, visitor.VisitorName,
			visitor.MobileNumber, visitor.VisitType, visitor.IDProof, visitor.ImageURL,
			visitor.VisitDate, visitor.Status, visitor.TenantID, visitor.CreatedBy,
			visitor.ApprovedBy, visitor.RejectionRemarks, visitor.CheckInTime, visitor.CheckOutTime,
		)
		if err != nil {
			return mapErr(err)
		}
		return tx.insertVisitorAdmins(ctx, visitor.ID, visitor.AssignedAdmins)
	})
}

func (s *PostgresStore) insertVisitorAdmins(ctx context.Context, visitorID uuid.UUID, admins []uuid.UUID) error {
	if len(admins) == 0 {
		return nil
	}
	ids := make([]string, len(admins))
	for i, a := range admins {
		ids[i] = a.String()
	}
	_, err := s.getDB().ExecContext(ctx,
		`INSERT INTO visitor_admins (visitor_id, admin_id)
         SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
		visitorID, pq.Array(ids),
	)
	return mapErr(err)
}

// GetVisitor gets a visitor by ID
func (s *PostgresStore) GetVisitor(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+visitorColumns+` FROM visitors v WHERE v.id = $1`, id)
	return scanVisitor(row)
}

// UpdateVisitor updates a visitor and its assignment set in one transaction.
func (s *PostgresStore) UpdateVisitor(ctx context.Context, visitor *models.Visitor) error {
	visitor.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE visitors SET
            updated_at = $2, visitor_name = $3, mobile_number = $4, visit_type = $5,
            id_proof = $6, image_url = $7, visit_date = $8, status = $9, tenant_id = $10,
            created_by = $11, approved_by = $12, rejection_remarks = $13,
            check_in_time = $14, check_out_time = $15
        WHERE id = $1`

	return s.inTx(ctx, func(tx *PostgresStore) error {
		res, err := tx.getDB().ExecContext(ctx, query,
			visitor.ID, visitor.UpdatedAt, visitor.VisitorName, visitor.MobileNumber,
			visitor.VisitType, visitor.IDProof, visitor.ImageURL, visitor.VisitDate,
			visitor.Status, visitor.TenantID, visitor.CreatedBy, visitor.ApprovedBy,
			visitor.RejectionRemarks, visitor.CheckInTime, visitor.CheckOutTime,
		)
		if err != nil {
			return mapErr(err)
		}
		if err := expectRow(res); err != nil {
			return err
		}
		return tx.replaceVisitorAdmins(ctx, visitor.ID, visitor.AssignedAdmins)
	})
}

// replaceVisitorAdmins rewrites the assignment set only when it changed.
func (s *PostgresStore) replaceVisitorAdmins(ctx context.Context, visitorID uuid.UUID, admins []uuid.UUID) error {
	rows, err := s.getDB().QueryContext(ctx, "SELECT admin_id::text FROM visitor_admins WHERE visitor_id = $1", visitorID)
	if err != nil {
		return mapErr(err)
	}
	current := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		current[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	wanted := make(map[string]bool, len(admins))
	for _, a := range admins {
		wanted[a.String()] = true
	}
	if len(wanted) == len(current) {
		same := true
		for id := range wanted {
			if !current[id] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}

	if _, err := s.getDB().ExecContext(ctx, "DELETE FROM visitor_admins WHERE visitor_id = $1", visitorID); err != nil {
		return mapErr(err)
	}
	return s.insertVisitorAdmins(ctx, visitorID, admins)
}

// DeleteVisitor deletes a visitor
func (s *PostgresStore) DeleteVisitor(ctx context.Context, id uuid.UUID) error {
	res, err := s.getDB().ExecContext(ctx, "DELETE FROM visitors WHERE id = $1", id)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// FindOpenVisitorByMobile finds the visitor currently on the premises with the mobile number
func (s *PostgresStore) FindOpenVisitorByMobile(ctx context.Context, mobile string) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors v
        WHERE v.mobile_number = $1 AND v.status = 'CHECKED_IN' AND v.check_out_time IS NULL
        LIMIT 1`
	return scanVisitor(s.getDB().QueryRowContext(ctx, query, mobile))
}

func visitorWhere(f VisitorFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.TenantID != nil {
		w.add("v.tenant_id = ?", *f.TenantID)
	}
	w.statuses("v.status", statusStrings(f.Statuses))
	if f.VisitDate != nil {
		w.add("v.visit_date = ?::date", models.DateOnly(*f.VisitDate).Format("2006-01-02"))
	}
	if f.AssignedAdmin != nil {
		w.add("EXISTS (SELECT 1 FROM visitor_admins a WHERE a.visitor_id = v.id AND a.admin_id = ?)", *f.AssignedAdmin)
	}
	switch f.Presence {
	case PresenceInside:
		w.add("v.check_in_time IS NOT NULL AND v.check_out_time IS NULL")
	case PresenceLeft:
		w.add("v.check_out_time IS NOT NULL")
	}
	return w
}

// ListVisitors lists visitors matching the filter, newest first
func (s *PostgresStore) ListVisitors(ctx context.Context, filter VisitorFilter) ([]*models.Visitor, error) {
	w := visitorWhere(filter)
	rows, err := s.getDB().QueryContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors v`+w.String()+` ORDER BY v.created_at DESC`,
		w.args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// CountVisitors counts visitors matching the filter
func (s *PostgresStore) CountVisitors(ctx context.Context, filter VisitorFilter) (int64, error) {
	w := visitorWhere(filter)
	var count int64
	err := s.getDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors v`+w.String(), w.args...).Scan(&count)
	return count, err
}

// ========== Visitor History Methods ==========

const visitorHistoryColumns = `id, created_at, updated_at, visitor_id, visitor_name, mobile_number,
               visit_type, id_proof, image_url, visit_date, status, tenant_id, created_by,
               approved_by, rejection_remarks, check_in_time, check_out_time`

func scanVisitorHistory(row interface{ Scan(...interface{}) error }) (*models.VisitorHistory, error) {
	h := &models.VisitorHistory{}
	err := row.Scan(
		&h.ID, &h.CreatedAt, &h.UpdatedAt, &h.VisitorID, &h.VisitorName, &h.MobileNumber,
		&h.VisitType, &h.IDProof, &h.ImageURL, &h.VisitDate, &h.Status, &h.TenantID,
		&h.CreatedBy, &h.ApprovedBy, &h.RejectionRemarks, &h.CheckInTime, &h.CheckOutTime,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return h, nil
}

// CreateVisitorHistory opens a ledger row
func (s *PostgresStore) CreateVisitorHistory(ctx context.Context, entry *models.VisitorHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
        INSERT INTO visitor_history (` + visitorHistoryColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.UpdatedAt, entry.VisitorID, entry.VisitorName,
		entry.MobileNumber, entry.VisitType, entry.IDProof, entry.ImageURL, entry.VisitDate,
		entry.Status, entry.TenantID, entry.CreatedBy, entry.ApprovedBy,
		entry.RejectionRemarks, entry.CheckInTime, entry.CheckOutTime,
	)
	return mapErr(err)
}

// UpdateVisitorHistory mutates a ledger row in place
func (s *PostgresStore) UpdateVisitorHistory(ctx context.Context, entry *models.VisitorHistory) error {
	entry.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE visitor_history SET
            updated_at = $2, status = $3, approved_by = $4, rejection_remarks = $5,
            check_in_time = $6, check_out_time = $7
        WHERE id = $1`

	res, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.UpdatedAt, entry.Status, entry.ApprovedBy,
		entry.RejectionRemarks, entry.CheckInTime, entry.CheckOutTime,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// ListVisitorHistory lists a visitor's ledger rows, oldest first
func (s *PostgresStore) ListVisitorHistory(ctx context.Context, visitorID uuid.UUID) ([]*models.VisitorHistory, error) {
	rows, err := s.getDB().QueryContext(ctx,
		`SELECT `+visitorHistoryColumns+` FROM visitor_history WHERE visitor_id = $1 ORDER BY created_at`,
		visitorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisitorHistory(rows)
}

// FindOpenVisitorHistory finds the visitor's ledger row without a check-out
func (s *PostgresStore) FindOpenVisitorHistory(ctx context.Context, visitorID uuid.UUID) (*models.VisitorHistory, error) {
	query := `SELECT ` + visitorHistoryColumns + ` FROM visitor_history
        WHERE visitor_id = $1 AND check_out_time IS NULL
        ORDER BY created_at DESC LIMIT 1`
	return scanVisitorHistory(s.getDB().QueryRowContext(ctx, query, visitorID))
}

// ListVisitorHistoryPage pages ledger rows by visit date, newest first
func (s *PostgresStore) ListVisitorHistoryPage(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*models.VisitorHistory, int64, error) {
	w := &whereBuilder{}
	if filter.SubjectID != nil {
		w.add("visitor_id = ?", *filter.SubjectID)
	}
	if filter.TenantID != nil {
		w.add("tenant_id = ?", *filter.TenantID)
	}
	w.statuses("status", statusStrings(filter.Statuses))
	w.add("visit_date BETWEEN ?::date AND ?::date",
		filter.Start.Format("2006-01-02"), filter.End.Format("2006-01-02"))

	var count int64
	err := s.getDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM visitor_history"+w.String(), w.args...).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + visitorHistoryColumns + ` FROM visitor_history` + w.String() +
		` ORDER BY visit_date DESC, created_at DESC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	rows, err := s.getDB().QueryContext(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := collectVisitorHistory(rows)
	return entries, count, err
}

func collectVisitorHistory(rows interface {
	Next() bool
	Err() error
	Scan(...interface{}) error
}) ([]*models.VisitorHistory, error) {
	var out []*models.VisitorHistory
	for rows.Next() {
		h, err := scanVisitorHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func statusStrings(statuses []models.Status) []string {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
