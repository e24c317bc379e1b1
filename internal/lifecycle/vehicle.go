package lifecycle

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

// VehicleRequest registers a vehicle at the gate. TenantID wins over Company
// when both are given.
type VehicleRequest struct {
	VehicleNumber string             `json:"vehicleNumber" validate:"required"`
	VehicleType   models.VehicleType `json:"vehicleType" validate:"vehicletype"`
	DriverName    string             `json:"driverName"`
	Company       string             `json:"company"`
	Purpose       string             `json:"purpose"`
	UserType      models.UserType    `json:"userType" validate:"usertype"`
	TenantID      *uuid.UUID         `json:"tenantId"`
}

// VehicleUpdate carries the fields to change. Nil fields are left alone.
type VehicleUpdate struct {
	VehicleNumber *string             `json:"vehicleNumber"`
	VehicleType   *models.VehicleType `json:"vehicleType"`
	DriverName    *string             `json:"driverName"`
	Company       *string             `json:"company"`
	Purpose       *string             `json:"purpose"`
	UserType      *models.UserType    `json:"userType"`
	TenantID      *uuid.UUID          `json:"tenantId"`
}

// VehicleService runs the vehicle lifecycle: PENDING on registration,
// CHECKED_IN once entry is confirmed, CHECKED_OUT on exit.
type VehicleService struct {
	store storage.Store
	now   clock
}

// NewVehicleService creates the vehicle service.
func NewVehicleService(store storage.Store) *VehicleService {
	return &VehicleService{store: store, now: systemClock}
}

// Create registers a vehicle as PENDING. A vehicle number may only have one
// open record at a time.
func (s *VehicleService) Create(ctx context.Context, req VehicleRequest, caller identity.Identity) (*models.Vehicle, error) {
	number := strings.TrimSpace(req.VehicleNumber)
	if number == "" {
		return nil, apperr.Validation("vehicleNumber is required")
	}
	if _, err := s.store.FindOpenVehicleByNumber(ctx, number); err == nil {
		return nil, apperr.Conflict("vehicle %s is already inside", number)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	tenant, err := s.resolveTenant(ctx, req.TenantID, req.Company)
	if err != nil {
		return nil, err
	}

	vehicle := &models.Vehicle{
		VehicleNumber: number,
		VehicleType:   req.VehicleType,
		DriverName:    req.DriverName,
		Company:       req.Company,
		Purpose:       req.Purpose,
		UserType:      req.UserType,
		Status:        models.StatusPending,
		CreatedBy:     caller.SubjectRef(),
	}
	if tenant != nil {
		id := tenant.ID
		vehicle.TenantID = &id
		vehicle.Company = tenant.CompanyName
	}

	if err := s.store.CreateVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("vehicle %s is already inside", number)
		}
		return nil, apperr.Internal(err)
	}
	log.Info().Str("vehicleID", vehicle.ID.String()).Str("number", number).Msg("vehicle registered")
	return vehicle, nil
}

// resolveTenant looks a tenant up by id, or failing that by company name. An
// unknown company name is not an error: the vehicle keeps the free text.
func (s *VehicleService) resolveTenant(ctx context.Context, tenantID *uuid.UUID, company string) (*models.Tenant, error) {
	if tenantID != nil {
		tenant, err := s.store.GetTenant(ctx, *tenantID)
		if err != nil {
			return nil, apperr.FromStore(err, "tenant")
		}
		return tenant, nil
	}
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, nil
	}
	tenant, err := s.store.GetTenantByCompanyName(ctx, company)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tenant, nil
}

// ConfirmEntry admits a pending vehicle and opens its ledger row.
func (s *VehicleService) ConfirmEntry(ctx context.Context, id uuid.UUID, caller identity.Identity) (*models.Vehicle, error) {
	vehicle, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle.Status != models.StatusPending {
		return nil, apperr.InvalidState("vehicle is not pending: %s", vehicle.Status)
	}

	vehicle.Status = models.StatusCheckedIn
	vehicle.CheckInTime = s.now.stamp()
	if err := s.store.UpdateVehicle(ctx, vehicle); err != nil {
		return nil, apperr.FromStore(err, "vehicle")
	}
	log.Info().Str("vehicleID", id.String()).Str("by", caller.SubjectID.String()).Msg("vehicle entered")

	if err := s.store.CreateVehicleHistory(ctx, models.NewVehicleHistory(vehicle)); err != nil {
		log.Error().Err(err).Str("vehicleID", id.String()).Msg("failed to open vehicle history")
	}
	return vehicle, nil
}

// CheckOut records the vehicle leaving and closes its ledger row. A missing
// ledger row does not block the exit.
func (s *VehicleService) CheckOut(ctx context.Context, id uuid.UUID, caller identity.Identity) (*models.Vehicle, error) {
	vehicle, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle.Status != models.StatusCheckedIn {
		return nil, apperr.InvalidState("vehicle is not checked in: %s", vehicle.Status)
	}

	vehicle.Status = models.StatusCheckedOut
	vehicle.CheckOutTime = s.now.stamp()
	if err := s.store.UpdateVehicle(ctx, vehicle); err != nil {
		return nil, apperr.FromStore(err, "vehicle")
	}
	log.Info().Str("vehicleID", id.String()).Str("by", caller.SubjectID.String()).Msg("vehicle left")

	entry, err := s.store.FindOpenVehicleHistory(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Warn().Str("vehicleID", id.String()).Msg("no open history row to close")
	case err != nil:
		log.Error().Err(err).Str("vehicleID", id.String()).Msg("failed to load open vehicle history")
	default:
		entry.Status = vehicle.Status
		entry.CheckOutTime = models.CopyTime(vehicle.CheckOutTime)
		if err := s.store.UpdateVehicleHistory(ctx, entry); err != nil {
			log.Error().Err(err).Str("vehicleID", id.String()).Msg("failed to close vehicle history")
		}
	}
	return vehicle, nil
}

// Update edits a vehicle as security staff and re-resolves its tenant.
func (s *VehicleService) Update(ctx context.Context, id uuid.UUID, upd VehicleUpdate, caller identity.Identity) (*models.Vehicle, error) {
	vehicle, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyVehicleUpdate(vehicle, upd)

	switch {
	case upd.TenantID != nil:
		tenant, err := s.resolveTenant(ctx, upd.TenantID, "")
		if err != nil {
			return nil, err
		}
		vehicle.TenantID = &tenant.ID
	case upd.Company != nil:
		tenant, err := s.resolveTenant(ctx, nil, *upd.Company)
		if err != nil {
			return nil, err
		}
		if tenant != nil {
			vehicle.TenantID = &tenant.ID
		}
	}
	return s.save(ctx, vehicle, caller)
}

// UpdateForTenant edits a vehicle on behalf of its tenant's admin. The tenant
// link itself cannot be changed this way.
func (s *VehicleService) UpdateForTenant(ctx context.Context, id uuid.UUID, upd VehicleUpdate, caller identity.Identity) (*models.Vehicle, error) {
	vehicle, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.SameTenant(vehicle.TenantID) {
		return nil, apperr.Unauthorized("vehicle does not belong to your tenant")
	}
	upd.TenantID = nil
	applyVehicleUpdate(vehicle, upd)
	return s.save(ctx, vehicle, caller)
}

func applyVehicleUpdate(vehicle *models.Vehicle, upd VehicleUpdate) {
	if upd.VehicleNumber != nil {
		vehicle.VehicleNumber = strings.TrimSpace(*upd.VehicleNumber)
	}
	if upd.VehicleType != nil {
		vehicle.VehicleType = *upd.VehicleType
	}
	if upd.DriverName != nil {
		vehicle.DriverName = *upd.DriverName
	}
	if upd.Company != nil {
		vehicle.Company = *upd.Company
	}
	if upd.Purpose != nil {
		vehicle.Purpose = *upd.Purpose
	}
	if upd.UserType != nil {
		vehicle.UserType = *upd.UserType
	}
}

func (s *VehicleService) save(ctx context.Context, vehicle *models.Vehicle, caller identity.Identity) (*models.Vehicle, error) {
	if err := s.store.UpdateVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("vehicle %s is already inside", vehicle.VehicleNumber)
		}
		return nil, apperr.FromStore(err, "vehicle")
	}
	log.Info().Str("vehicleID", vehicle.ID.String()).Str("by", caller.SubjectID.String()).Msg("vehicle updated")
	return vehicle, nil
}

// Delete removes a vehicle. History rows are kept.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteVehicle(ctx, id); err != nil {
		return apperr.FromStore(err, "vehicle")
	}
	log.Info().Str("vehicleID", id.String()).Msg("vehicle deleted")
	return nil
}

// DeleteForTenant removes a vehicle belonging to the caller's tenant.
func (s *VehicleService) DeleteForTenant(ctx context.Context, id uuid.UUID, caller identity.Identity) error {
	vehicle, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !caller.SameTenant(vehicle.TenantID) {
		return apperr.Unauthorized("vehicle does not belong to your tenant")
	}
	return s.Delete(ctx, id)
}

// Get returns one vehicle.
func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return s.get(ctx, id)
}

func (s *VehicleService) get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "vehicle")
	}
	return vehicle, nil
}

// FindOpenByNumber returns the open record for a vehicle number, or nil when
// the vehicle is not on the premises.
func (s *VehicleService) FindOpenByNumber(ctx context.Context, number string) (*models.Vehicle, error) {
	vehicle, err := s.store.FindOpenVehicleByNumber(ctx, strings.TrimSpace(number))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return vehicle, nil
}

func (s *VehicleService) list(ctx context.Context, filter storage.VehicleFilter) ([]*models.Vehicle, error) {
	vehicles, err := s.store.ListVehicles(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orEmpty(vehicles), nil
}

// ListAll lists every vehicle record.
func (s *VehicleService) ListAll(ctx context.Context) ([]*models.Vehicle, error) {
	return s.list(ctx, storage.VehicleFilter{})
}

// ListInside lists vehicles that are waiting at or inside the gate.
func (s *VehicleService) ListInside(ctx context.Context) ([]*models.Vehicle, error) {
	return s.list(ctx, storage.VehicleFilter{
		Statuses: []models.Status{models.StatusPending, models.StatusCheckedIn},
	})
}

// ListCheckedOut lists vehicles that have left.
func (s *VehicleService) ListCheckedOut(ctx context.Context) ([]*models.Vehicle, error) {
	return s.list(ctx, storage.VehicleFilter{Statuses: []models.Status{models.StatusCheckedOut}})
}

// ListByTenant lists a tenant's vehicles.
func (s *VehicleService) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Vehicle, error) {
	return s.list(ctx, storage.VehicleFilter{TenantID: &tenantID})
}
