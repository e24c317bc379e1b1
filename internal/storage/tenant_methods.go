package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
)

// ========== Tenant Methods ==========

const tenantColumns = `id, created_at, updated_at, company_name, company_code,
               floor_number, office_number, status`

func scanTenant(row interface{ Scan(...interface{}) error }) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.CompanyName, &t.CompanyCode,
		&t.FloorNumber, &t.OfficeNumber, &t.Status,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// CreateTenant creates a new tenant
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	query := `
        INSERT INTO tenants (` + tenantColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.CreatedAt, tenant.UpdatedAt, tenant.CompanyName,
		tenant.CompanyCode, tenant.FloorNumber, tenant.OfficeNumber, tenant.Status,
	)
	return mapErr(err)
}

// GetTenant gets a tenant by ID
func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// GetTenantByCompanyName gets a tenant by its company name
func (s *PostgresStore) GetTenantByCompanyName(ctx context.Context, name string) (*models.Tenant, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE lower(company_name) = lower($1)`, name)
	return scanTenant(row)
}

// UpdateTenant updates a tenant
func (s *PostgresStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE tenants SET
            updated_at = $2, company_name = $3, company_code = $4,
            floor_number = $5, office_number = $6, status = $7
        WHERE id = $1`

	res, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.UpdatedAt, tenant.CompanyName, tenant.CompanyCode,
		tenant.FloorNumber, tenant.OfficeNumber, tenant.Status,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// DeleteTenant deletes a tenant; its admin accounts cascade
func (s *PostgresStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	res, err := s.getDB().ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", id)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// ListTenants lists all tenants by company name
func (s *PostgresStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.getDB().QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY company_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// CountTenants counts all tenants
func (s *PostgresStore) CountTenants(ctx context.Context) (int64, error) {
	var count int64
	err := s.getDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants").Scan(&count)
	return count, err
}

// CountOpenSessionsByTenant counts unclosed vehicle and visitor sessions
func (s *PostgresStore) CountOpenSessionsByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	query := `
        SELECT
            (SELECT COUNT(*) FROM vehicles WHERE tenant_id = $1 AND check_out_time IS NULL) +
            (SELECT COUNT(*) FROM visitors WHERE tenant_id = $1 AND status = 'CHECKED_IN' AND check_out_time IS NULL)`

	var count int64
	err := s.getDB().QueryRowContext(ctx, query, tenantID).Scan(&count)
	return count, err
}
