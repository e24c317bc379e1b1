// Package identity carries the resolved caller of an operation.
package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
)

// Identity is the resolved caller: who they are, what role they hold and which
// tenant, if any, scopes them.
type Identity struct {
	SubjectID uuid.UUID
	Role      models.Role
	TenantID  *uuid.UUID
}

// New builds an identity. tenantID may be nil for non-tenant roles.
func New(subjectID uuid.UUID, role models.Role, tenantID *uuid.UUID) Identity {
	return Identity{SubjectID: subjectID, Role: role, TenantID: models.CopyID(tenantID)}
}

// FromUser resolves the identity of a stored account.
func FromUser(u *models.User) Identity {
	return New(u.ID, u.Role, u.TenantID)
}

func (i Identity) IsSuperAdmin() bool   { return i.Role == models.RoleSuperAdmin }
func (i Identity) IsTenantAdmin() bool  { return i.Role == models.RoleTenantAdmin }
func (i Identity) IsSecurityUser() bool { return i.Role == models.RoleSecurityUser }

// HasTenant reports whether the identity is scoped to a tenant.
func (i Identity) HasTenant() bool {
	return i.TenantID != nil
}

// SameTenant reports whether tenantID is the identity's own tenant.
func (i Identity) SameTenant(tenantID *uuid.UUID) bool {
	return i.TenantID != nil && tenantID != nil && *i.TenantID == *tenantID
}

// SubjectRef returns a pointer to the subject id, for createdBy/approvedBy fields.
func (i Identity) SubjectRef() *uuid.UUID {
	id := i.SubjectID
	return &id
}

type contextKey struct{}

// WithIdentity attaches id to ctx. Only the REST boundary uses this; services
// take the identity as an explicit argument.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
