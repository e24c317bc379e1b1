package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/smartsecurity/access-register/internal/models"
)

// ========== User Methods ==========

const userColumns = `id, created_at, updated_at, email, full_name, mobile_number, id_proof,
               password_hash, role, status, tenant_id, fcm_token`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &u.FullName, &u.MobileNumber,
		&u.IDProof, &u.PasswordHash, &u.Role, &u.Status, &u.TenantID, &u.FCMToken,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// CreateUser creates a new user
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (` + userColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.CreatedAt, user.UpdatedAt, user.Email, user.FullName,
		user.MobileNumber, user.IDProof, user.PasswordHash, user.Role, user.Status,
		user.TenantID, user.FCMToken,
	)
	return mapErr(err)
}

// GetUser gets a user by ID
func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail gets a user by email, case-insensitively
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.getDB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// GetUsers loads the users with the given ids; unknown ids are skipped
func (s *PostgresStore) GetUsers(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[]) ORDER BY created_at`, pq.Array(strIDs))
}

// UpdateUser updates a user
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE users SET
            updated_at = $2, email = $3, full_name = $4, mobile_number = $5,
            id_proof = $6, password_hash = $7, role = $8, status = $9,
            tenant_id = $10, fcm_token = $11
        WHERE id = $1`

	res, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.UpdatedAt, user.Email, user.FullName, user.MobileNumber,
		user.IDProof, user.PasswordHash, user.Role, user.Status, user.TenantID,
		user.FCMToken,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// DeleteUser deletes a user
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.getDB().ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return mapErr(err)
	}
	return expectRow(res)
}

// ListUsersByTenant lists the accounts scoped to a tenant
func (s *PostgresStore) ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
}

// ListUsersByRole lists the accounts holding a role
func (s *PostgresStore) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, role)
}

func (s *PostgresStore) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
