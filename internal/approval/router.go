// Package approval decides who may act on a pending walk-in visitor.
package approval

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

// Router resolves assignment sets and checks acting admins against them.
type Router struct {
	store storage.Store
}

// NewRouter creates a router over store.
func NewRouter(store storage.Store) *Router {
	return &Router{store: store}
}

// MergeAdminIDs folds the primary admin into ids, dropping duplicates and nil
// ids. Order is first-seen, primary first.
func MergeAdminIDs(primary *uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids)+1)
	out := make([]uuid.UUID, 0, len(ids)+1)
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if primary != nil {
		add(*primary)
	}
	for _, id := range ids {
		add(id)
	}
	return out
}

// Resolve loads the admins named by primary and ids. Every id must exist; an
// admin from another tenant is logged and still assigned.
func (r *Router) Resolve(ctx context.Context, tenantID uuid.UUID, primary *uuid.UUID, ids []uuid.UUID) ([]*models.User, error) {
	merged := MergeAdminIDs(primary, ids)
	if len(merged) == 0 {
		return nil, nil
	}

	admins := make([]*models.User, 0, len(merged))
	for _, id := range merged {
		admin, err := r.store.GetUser(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("admin not found: %s", id)
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if admin.TenantID == nil || *admin.TenantID != tenantID {
			log.Warn().
				Str("adminID", id.String()).
				Str("tenantID", tenantID.String()).
				Msg("assigned admin does not belong to visitor tenant")
		}
		admins = append(admins, admin)
	}
	return admins, nil
}

// Authorize checks that caller may decide visitor: same tenant, and a member of
// the assignment set when the set is non-empty.
func Authorize(visitor *models.Visitor, caller identity.Identity) error {
	if !caller.SameTenant(visitor.TenantID) {
		return apperr.Unauthorized("visitor does not belong to your tenant")
	}
	if len(visitor.AssignedAdmins) > 0 && !visitor.IsAssigned(caller.SubjectID) {
		return apperr.Unauthorized("you are not assigned to this visitor")
	}
	return nil
}

// PendingFor lists the pending visitors of admin's tenant that admin is
// explicitly assigned to.
func (r *Router) PendingFor(ctx context.Context, admin identity.Identity) ([]*models.Visitor, error) {
	if !admin.HasTenant() {
		return []*models.Visitor{}, nil
	}
	adminID := admin.SubjectID
	visitors, err := r.store.ListVisitors(ctx, storage.VisitorFilter{
		TenantID:      admin.TenantID,
		Statuses:      []models.Status{models.StatusPending},
		AssignedAdmin: &adminID,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return visitors, nil
}

// Recipients returns the push tokens of users that have one.
func Recipients(users []*models.User) []string {
	var tokens []string
	for _, u := range users {
		if strings.TrimSpace(u.FCMToken) != "" {
			tokens = append(tokens, u.FCMToken)
		}
	}
	return tokens
}
