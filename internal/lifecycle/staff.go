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

// StaffRequest registers a staff member.
type StaffRequest struct {
	EmployeeCode string `json:"employeeCode"`
	Name         string `json:"name" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Address      string `json:"address"`
	IDProof      string `json:"idProof"`
}

// StaffUpdate carries the fields to change. Nil fields are left alone.
type StaffUpdate struct {
	EmployeeCode *string `json:"employeeCode"`
	Name         *string `json:"name"`
	MobileNumber *string `json:"mobileNumber"`
	Address      *string `json:"address"`
	IDProof      *string `json:"idProof"`
}

// StaffService runs the daily staff check-in/check-out cycle.
type StaffService struct {
	store storage.Store
	now   clock
}

// NewStaffService creates the staff service.
func NewStaffService(store storage.Store) *StaffService {
	return &StaffService{store: store, now: systemClock}
}

// Create registers a staff member as PENDING. A mobile number may only have
// one open record at a time.
func (s *StaffService) Create(ctx context.Context, req StaffRequest, caller identity.Identity) (*models.Staff, error) {
	mobile := strings.TrimSpace(req.MobileNumber)
	if mobile == "" {
		return nil, apperr.Validation("mobileNumber is required")
	}
	if _, err := s.store.FindOpenStaffByMobile(ctx, mobile); err == nil {
		return nil, apperr.Conflict("staff with mobile %s already has an open record", mobile)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	staff := &models.Staff{
		EmployeeCode: req.EmployeeCode,
		Name:         req.Name,
		MobileNumber: mobile,
		Address:      req.Address,
		IDProof:      req.IDProof,
		Status:       models.StatusPending,
		CreatedBy:    caller.SubjectRef(),
	}
	if err := s.store.CreateStaff(ctx, staff); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("staff with mobile %s already has an open record", mobile)
		}
		return nil, apperr.Internal(err)
	}
	log.Info().Str("staffID", staff.ID.String()).Msg("staff registered")
	return staff, nil
}

// Update edits a staff member's details.
func (s *StaffService) Update(ctx context.Context, id uuid.UUID, upd StaffUpdate) (*models.Staff, error) {
	staff, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.EmployeeCode != nil {
		staff.EmployeeCode = *upd.EmployeeCode
	}
	if upd.Name != nil {
		staff.Name = *upd.Name
	}
	if upd.MobileNumber != nil {
		staff.MobileNumber = strings.TrimSpace(*upd.MobileNumber)
	}
	if upd.Address != nil {
		staff.Address = *upd.Address
	}
	if upd.IDProof != nil {
		staff.IDProof = *upd.IDProof
	}
	if err := s.save(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

// Delete removes a staff member. History rows are kept.
func (s *StaffService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteStaff(ctx, id); err != nil {
		return apperr.FromStore(err, "staff")
	}
	log.Info().Str("staffID", id.String()).Msg("staff deleted")
	return nil
}

// List lists all staff by name.
func (s *StaffService) List(ctx context.Context) ([]*models.Staff, error) {
	staff, err := s.store.ListStaff(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orEmpty(staff), nil
}

// Get returns one staff member.
func (s *StaffService) Get(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	return s.get(ctx, id)
}

// CheckIn starts a new shift. Any status but CHECKED_IN is accepted; the
// previous check-out time is cleared.
func (s *StaffService) CheckIn(ctx context.Context, id uuid.UUID, caller identity.Identity) (*models.Staff, error) {
	staff, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if staff.Status == models.StatusCheckedIn {
		return nil, apperr.InvalidState("staff is already checked in")
	}

	staff.Status = models.StatusCheckedIn
	staff.CheckInTime = s.now.stamp()
	staff.CheckOutTime = nil
	if err := s.save(ctx, staff); err != nil {
		return nil, err
	}
	log.Info().Str("staffID", id.String()).Str("by", caller.SubjectID.String()).Msg("staff checked in")

	if err := s.store.CreateStaffHistory(ctx, models.NewStaffHistory(staff)); err != nil {
		log.Error().Err(err).Str("staffID", id.String()).Msg("failed to open staff history")
	}
	return staff, nil
}

// CheckOut ends the current shift and closes its ledger row.
func (s *StaffService) CheckOut(ctx context.Context, id uuid.UUID, caller identity.Identity) (*models.Staff, error) {
	staff, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if staff.Status != models.StatusCheckedIn {
		return nil, apperr.InvalidState("staff is not checked in: %s", staff.Status)
	}

	staff.Status = models.StatusCheckedOut
	staff.CheckOutTime = s.now.stamp()
	if err := s.save(ctx, staff); err != nil {
		return nil, err
	}
	log.Info().Str("staffID", id.String()).Str("by", caller.SubjectID.String()).Msg("staff checked out")

	entry, err := s.store.FindOpenStaffHistory(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Warn().Str("staffID", id.String()).Msg("no open history row to close")
	case err != nil:
		log.Error().Err(err).Str("staffID", id.String()).Msg("failed to load open staff history")
	default:
		entry.Status = staff.Status
		entry.CheckOutTime = models.CopyTime(staff.CheckOutTime)
		if err := s.store.UpdateStaffHistory(ctx, entry); err != nil {
			log.Error().Err(err).Str("staffID", id.String()).Msg("failed to close staff history")
		}
	}
	return staff, nil
}

func (s *StaffService) get(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	staff, err := s.store.GetStaff(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "staff")
	}
	return staff, nil
}

func (s *StaffService) save(ctx context.Context, staff *models.Staff) error {
	if err := s.store.UpdateStaff(ctx, staff); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return apperr.Conflict("staff with mobile %s already has an open record", staff.MobileNumber)
		}
		return apperr.FromStore(err, "staff")
	}
	return nil
}
