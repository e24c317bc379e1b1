// Package memory is an in-process Store used by tests and standalone dev
// runs. All methods copy records in and out so callers never share state with
// the store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

// Store implements storage.Store in memory.
type Store struct {
	mu sync.RWMutex

	users          map[uuid.UUID]*models.User
	tenants        map[uuid.UUID]*models.Tenant
	visitors       map[uuid.UUID]*models.Visitor
	visitorHistory map[uuid.UUID]*models.VisitorHistory
	vehicles       map[uuid.UUID]*models.Vehicle
	vehicleHistory map[uuid.UUID]*models.VehicleHistory
	staff          map[uuid.UUID]*models.Staff
	staffHistory   map[uuid.UUID]*models.StaffHistory

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:          make(map[uuid.UUID]*models.User),
		tenants:        make(map[uuid.UUID]*models.Tenant),
		visitors:       make(map[uuid.UUID]*models.Visitor),
		visitorHistory: make(map[uuid.UUID]*models.VisitorHistory),
		vehicles:       make(map[uuid.UUID]*models.Vehicle),
		vehicleHistory: make(map[uuid.UUID]*models.VehicleHistory),
		staff:          make(map[uuid.UUID]*models.Staff),
		staffHistory:   make(map[uuid.UUID]*models.StaffHistory),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// BeginTx returns the store itself; every method is already atomic.
func (s *Store) BeginTx(_ context.Context) (storage.Store, error) { return s, nil }
func (s *Store) Commit() error                                      { return nil }
func (s *Store) Rollback() error                                    { return nil }
func (s *Store) Close() error                                       { return nil }

func (s *Store) stamp(id *uuid.UUID, created, updated *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// ========== Users ==========

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return storage.ErrDuplicateKey
		}
	}
	s.stamp(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) GetUsers(_ context.Context, ids []uuid.UUID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	for id, u := range s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return storage.ErrDuplicateKey
		}
	}
	user.CreatedAt = cur.CreatedAt
	user.UpdatedAt = s.now()
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ListUsersByTenant(_ context.Context, tenantID uuid.UUID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			out = append(out, u.Clone())
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) ListUsersByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u.Clone())
		}
	}
	sortUsers(out)
	return out, nil
}

func sortUsers(us []*models.User) {
	sort.Slice(us, func(i, j int) bool { return us[i].CreatedAt.Before(us[j].CreatedAt) })
}

// ========== Tenants ==========

func (s *Store) CreateTenant(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenantClashLocked(tenant) {
		return storage.ErrDuplicateKey
	}
	s.stamp(&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt)
	s.tenants[tenant.ID] = tenant.Clone()
	return nil
}

func (s *Store) tenantClashLocked(tenant *models.Tenant) bool {
	for id, t := range s.tenants {
		if id == tenant.ID {
			continue
		}
		if strings.EqualFold(t.CompanyName, tenant.CompanyName) || strings.EqualFold(t.CompanyCode, tenant.CompanyCode) {
			return true
		}
	}
	return false
}

func (s *Store) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) GetTenantByCompanyName(_ context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if strings.EqualFold(t.CompanyName, name) {
			return t.Clone(), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateTenant(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tenants[tenant.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if s.tenantClashLocked(tenant) {
		return storage.ErrDuplicateKey
	}
	tenant.CreatedAt = cur.CreatedAt
	tenant.UpdatedAt = s.now()
	s.tenants[tenant.ID] = tenant.Clone()
	return nil
}

// DeleteTenant removes the tenant and its admin accounts.
func (s *Store) DeleteTenant(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; !ok {
		return storage.ErrNotFound
	}
	for uid, u := range s.users {
		if u.TenantID != nil && *u.TenantID == id {
			delete(s.users, uid)
		}
	}
	delete(s.tenants, id)
	return nil
}

func (s *Store) ListTenants(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

func (s *Store) CountTenants(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.tenants)), nil
}

func (s *Store) CountOpenSessionsByTenant(_ context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, v := range s.vehicles {
		if v.TenantID != nil && *v.TenantID == tenantID && v.IsOpen() {
			n++
		}
	}
	for _, v := range s.visitors {
		if v.TenantID != nil && *v.TenantID == tenantID && v.IsOpen() {
			n++
		}
	}
	return n, nil
}
