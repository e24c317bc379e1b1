// Package tenancy manages tenants and their admin accounts.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/auth"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
	"github.com/smartsecurity/access-register/pkg/crypto"
)

// Notifier queues a push notification without blocking.
type Notifier interface {
	SendAsync(token, title, body string)
}

// TenantRequest creates a tenant. An empty Status means ACTIVE.
type TenantRequest struct {
	CompanyName  string               `json:"companyName" validate:"required"`
	CompanyCode  string               `json:"companyCode" validate:"required"`
	FloorNumber  *int                 `json:"floorNumber"`
	OfficeNumber string               `json:"officeNumber"`
	Status       models.AccountStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// TenantUpdate carries the tenant fields to change.
type TenantUpdate struct {
	CompanyName  *string               `json:"companyName"`
	CompanyCode  *string               `json:"companyCode"`
	FloorNumber  *int                  `json:"floorNumber"`
	OfficeNumber *string               `json:"officeNumber"`
	Status       *models.AccountStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// AdminUpdate carries the admin account fields to change. An empty password
// keeps the current one.
type AdminUpdate struct {
	FullName     *string               `json:"fullName"`
	Email        *string               `json:"email" validate:"omitempty,email"`
	MobileNumber *string               `json:"mobileNumber"`
	IDProof      *string               `json:"idProof"`
	Password     *string               `json:"password"`
	Status       *models.AccountStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// Service manages tenants. Every operation is for super admins only.
type Service struct {
	store    storage.Store
	notifier Notifier
}

// NewService creates the tenancy service. notifier may be nil.
func NewService(store storage.Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

func requireSuperAdmin(caller identity.Identity) error {
	if !caller.IsSuperAdmin() {
		return apperr.Unauthorized("only super admins can manage tenants")
	}
	return nil
}

// CreateTenant registers a tenant and tells the super admins.
func (s *Service) CreateTenant(ctx context.Context, req TenantRequest, caller identity.Identity) (*models.Tenant, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.AccountActive
	}
	tenant := &models.Tenant{
		CompanyName:  strings.TrimSpace(req.CompanyName),
		CompanyCode:  strings.TrimSpace(req.CompanyCode),
		FloorNumber:  req.FloorNumber,
		OfficeNumber: req.OfficeNumber,
		Status:       status,
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("company name or code already in use")
		}
		return nil, apperr.Internal(err)
	}
	log.Info().Str("tenantID", tenant.ID.String()).Str("company", tenant.CompanyName).Msg("tenant created")

	s.notifyCreated(ctx, tenant)
	return tenant, nil
}

func (s *Service) notifyCreated(ctx context.Context, tenant *models.Tenant) {
	if s.notifier == nil {
		return
	}
	admins, err := s.store.ListUsersByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load super admins for notification")
		return
	}
	body := fmt.Sprintf("Tenant %s created successfully", tenant.CompanyName)
	for _, a := range admins {
		if strings.TrimSpace(a.FCMToken) != "" {
			s.notifier.SendAsync(a.FCMToken, "New Tenant Added", body)
		}
	}
}

// UpdateTenant edits a tenant.
func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, upd TenantUpdate, caller identity.Identity) (*models.Tenant, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "tenant")
	}
	if upd.CompanyName != nil {
		tenant.CompanyName = strings.TrimSpace(*upd.CompanyName)
	}
	if upd.CompanyCode != nil {
		tenant.CompanyCode = strings.TrimSpace(*upd.CompanyCode)
	}
	if upd.FloorNumber != nil {
		tenant.FloorNumber = upd.FloorNumber
	}
	if upd.OfficeNumber != nil {
		tenant.OfficeNumber = *upd.OfficeNumber
	}
	if upd.Status != nil {
		tenant.Status = *upd.Status
	}
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("company name or code already in use")
		}
		return nil, apperr.FromStore(err, "tenant")
	}
	return tenant, nil
}

// GetTenant returns one tenant.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "tenant")
	}
	return tenant, nil
}

// ListTenants lists every tenant together with its admins.
func (s *Service) ListTenants(ctx context.Context, caller identity.Identity) ([]*models.TenantWithAdmins, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]*models.TenantWithAdmins, 0, len(tenants))
	for _, t := range tenants {
		admins, err := s.admins(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.TenantWithAdmins{Tenant: *t, Admins: admins})
	}
	return out, nil
}

// DeleteTenant removes a tenant and its admin accounts. It is refused while
// any vehicle or visitor of the tenant has an open session.
func (s *Service) DeleteTenant(ctx context.Context, id uuid.UUID, caller identity.Identity) error {
	if err := requireSuperAdmin(caller); err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer func() { _ = tx.Rollback() }()

	tenant, err := tx.GetTenant(ctx, id)
	if err != nil {
		return apperr.FromStore(err, "tenant")
	}
	open, err := tx.CountOpenSessionsByTenant(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if open > 0 {
		log.Warn().Str("tenantID", id.String()).Int64("openSessions", open).Msg("tenant delete refused")
		return apperr.Conflict("cannot delete tenant '%s': %d open session(s) must be checked out first", tenant.CompanyName, open)
	}
	if err := tx.DeleteTenant(ctx, id); err != nil {
		return apperr.FromStore(err, "tenant")
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	log.Info().Str("tenantID", id.String()).Str("company", tenant.CompanyName).Msg("tenant deleted")
	return nil
}

// AddTenantAdmin creates an admin account under a tenant.
func (s *Service) AddTenantAdmin(ctx context.Context, tenantID uuid.UUID, req auth.NewAccount, caller identity.Identity) (*models.User, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, apperr.FromStore(err, "tenant")
	}
	admin, err := auth.NewUser(req, models.RoleTenantAdmin, &tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("email %s is already registered", admin.Email)
		}
		return nil, apperr.Internal(err)
	}
	log.Info().Str("tenantID", tenantID.String()).Str("adminID", admin.ID.String()).Msg("tenant admin created")
	return admin, nil
}

// ListTenantAdmins lists a tenant's admin accounts.
func (s *Service) ListTenantAdmins(ctx context.Context, tenantID uuid.UUID, caller identity.Identity) ([]*models.User, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	return s.admins(ctx, tenantID)
}

func (s *Service) admins(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	users, err := s.store.ListUsersByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	admins := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleTenantAdmin {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

func (s *Service) getAdmin(ctx context.Context, adminID uuid.UUID) (*models.User, error) {
	admin, err := s.store.GetUser(ctx, adminID)
	if err != nil {
		return nil, apperr.FromStore(err, "admin")
	}
	if admin.Role != models.RoleTenantAdmin {
		return nil, apperr.Validation("user is not a tenant admin")
	}
	return admin, nil
}

// UpdateTenantAdmin edits an admin account.
func (s *Service) UpdateTenantAdmin(ctx context.Context, adminID uuid.UUID, upd AdminUpdate, caller identity.Identity) (*models.User, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	admin, err := s.getAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		admin.FullName = *upd.FullName
	}
	if upd.Email != nil {
		admin.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.MobileNumber != nil {
		admin.MobileNumber = *upd.MobileNumber
	}
	if upd.IDProof != nil {
		admin.IDProof = *upd.IDProof
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := crypto.HashPassword(*upd.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		admin.PasswordHash = hash
	}
	if upd.Status != nil {
		admin.Status = *upd.Status
	}
	if err := s.store.UpdateUser(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("email %s is already registered", admin.Email)
		}
		return nil, apperr.FromStore(err, "admin")
	}
	log.Info().Str("adminID", adminID.String()).Msg("tenant admin updated")
	return admin, nil
}

// DeleteTenantAdmin removes an admin account.
func (s *Service) DeleteTenantAdmin(ctx context.Context, adminID uuid.UUID, caller identity.Identity) error {
	if err := requireSuperAdmin(caller); err != nil {
		return err
	}
	if _, err := s.getAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, adminID); err != nil {
		return apperr.FromStore(err, "admin")
	}
	log.Info().Str("adminID", adminID.String()).Msg("tenant admin deleted")
	return nil
}
