package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)

	// Tenant methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantByCompanyName(ctx context.Context, name string) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	CountTenants(ctx context.Context) (int64, error)
	// CountOpenSessionsByTenant counts vehicles without a check-out time and
	// checked-in visitors without a check-out time under the tenant.
	CountOpenSessionsByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// Visitor methods
	CreateVisitor(ctx context.Context, visitor *models.Visitor) error
	GetVisitor(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
	// UpdateVisitor returns ErrDuplicateKey if the update would open a second
	// session for the same mobile number.
	UpdateVisitor(ctx context.Context, visitor *models.Visitor) error
	DeleteVisitor(ctx context.Context, id uuid.UUID) error
	FindOpenVisitorByMobile(ctx context.Context, mobile string) (*models.Visitor, error)
	ListVisitors(ctx context.Context, filter VisitorFilter) ([]*models.Visitor, error)
	CountVisitors(ctx context.Context, filter VisitorFilter) (int64, error)

	// Visitor history methods
	CreateVisitorHistory(ctx context.Context, entry *models.VisitorHistory) error
	UpdateVisitorHistory(ctx context.Context, entry *models.VisitorHistory) error
	ListVisitorHistory(ctx context.Context, visitorID uuid.UUID) ([]*models.VisitorHistory, error)
	FindOpenVisitorHistory(ctx context.Context, visitorID uuid.UUID) (*models.VisitorHistory, error)
	ListVisitorHistoryPage(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*models.VisitorHistory, int64, error)

	// Vehicle methods
	// CreateVehicle returns ErrDuplicateKey if an open record already holds
	// the vehicle number.
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	DeleteVehicle(ctx context.Context, id uuid.UUID) error
	FindOpenVehicleByNumber(ctx context.Context, number string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]*models.Vehicle, error)
	CountVehicles(ctx context.Context, filter VehicleFilter) (int64, error)

	// Vehicle history methods
	CreateVehicleHistory(ctx context.Context, entry *models.VehicleHistory) error
	UpdateVehicleHistory(ctx context.Context, entry *models.VehicleHistory) error
	FindOpenVehicleHistory(ctx context.Context, vehicleID uuid.UUID) (*models.VehicleHistory, error)
	ListVehicleHistoryPage(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*models.VehicleHistory, int64, error)

	// Staff methods
	// CreateStaff returns ErrDuplicateKey if an open record already holds the
	// mobile number.
	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaff(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	UpdateStaff(ctx context.Context, staff *models.Staff) error
	DeleteStaff(ctx context.Context, id uuid.UUID) error
	FindOpenStaffByMobile(ctx context.Context, mobile string) (*models.Staff, error)
	ListStaff(ctx context.Context) ([]*models.Staff, error)

	// Staff history methods
	CreateStaffHistory(ctx context.Context, entry *models.StaffHistory) error
	UpdateStaffHistory(ctx context.Context, entry *models.StaffHistory) error
	FindOpenStaffHistory(ctx context.Context, staffID uuid.UUID) (*models.StaffHistory, error)
	ListStaffHistoryPage(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*models.StaffHistory, int64, error)

	// Close the store
	Close() error
}

// Presence narrows visitor lists by check-in/out timestamps.
type Presence int

const (
	PresenceAny Presence = iota
	// PresenceInside: checked in, not checked out.
	PresenceInside
	// PresenceLeft: checked out.
	PresenceLeft
)

// VisitorFilter represents filters for visitor lists
type VisitorFilter struct {
	TenantID      *uuid.UUID
	Statuses      []models.Status
	VisitDate     *time.Time
	AssignedAdmin *uuid.UUID
	Presence      Presence
}

// VehicleFilter represents filters for vehicle lists
type VehicleFilter struct {
	TenantID *uuid.UUID
	Statuses []models.Status
}

// HistoryFilter represents filters for history pages. Start and End bound the
// kind's primary timestamp: visit date for visitors, check-in time for
// vehicles and staff.
type HistoryFilter struct {
	SubjectID *uuid.UUID
	TenantID  *uuid.UUID
	Statuses  []models.Status
	Start     time.Time
	End       time.Time
}

// StatusIn reports whether s passes the status filter. An empty filter
// matches everything.
func StatusIn(s models.Status, statuses []models.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
