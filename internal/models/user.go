package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what an account may do on the premises.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleTenantAdmin  Role = "TENANT_ADMIN"
	RoleSecurityUser Role = "SECURITY_USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleSecurityUser:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Email        string `json:"email" db:"email"`
	FullName     string `json:"fullName" db:"full_name"`
	MobileNumber string `json:"mobileNumber,omitempty" db:"mobile_number"`
	IDProof      string `json:"idProof,omitempty" db:"id_proof"`

	PasswordHash string `json:"-" db:"password_hash"`

	Role   Role          `json:"role" db:"role"`
	Status AccountStatus `json:"status" db:"status"`

	// TenantID is nil for super admins and security staff.
	TenantID *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`

	FCMToken string `json:"-" db:"fcm_token"`
}

// IsActive reports whether the account may log in.
func (u *User) IsActive() bool {
	return u.Status == AccountActive
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	c.TenantID = CopyID(u.TenantID)
	return &c
}
