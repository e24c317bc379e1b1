package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/approval"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

// WalkInRequest registers a visitor who arrived at the gate unannounced.
type WalkInRequest struct {
	VisitorName  string `json:"visitorName" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	VisitType    string `json:"visitType"`
	IDProof      string `json:"idProof"`
	ImageURL     string `json:"imageUrl"`

	TenantID         *uuid.UUID  `json:"tenantId" validate:"required"`
	AssignedAdminID  *uuid.UUID  `json:"assignedAdminId"`
	AssignedAdminIDs []uuid.UUID `json:"assignedAdminIds"`
}

// ScheduleRequest pre-registers an expected visitor. A zero VisitDate means today.
type ScheduleRequest struct {
	VisitorName  string    `json:"visitorName" validate:"required"`
	MobileNumber string    `json:"mobileNumber" validate:"required"`
	VisitType    string    `json:"visitType"`
	IDProof      string    `json:"idProof"`
	ImageURL     string    `json:"imageUrl"`
	VisitDate    time.Time `json:"visitDate"`
}

// VisitorUpdate carries the fields to change on a scheduled visitor. Nil
// fields are left alone.
type VisitorUpdate struct {
	VisitorName  *string    `json:"visitorName"`
	MobileNumber *string    `json:"mobileNumber"`
	VisitType    *string    `json:"visitType"`
	IDProof      *string    `json:"idProof"`
	VisitDate    *time.Time `json:"visitDate"`
}

// Decision is an admin's verdict on a pending visitor.
type Decision struct {
	Status  models.Status `json:"status" validate:"required"`
	Remarks string        `json:"remarks"`
}

// VisitorService runs the visitor lifecycle: walk-in approval, scheduled
// visits, check-in and check-out.
type VisitorService struct {
	store    storage.Store
	router   *approval.Router
	notifier Notifier
	now      clock
}

// NewVisitorService creates the visitor service. notifier may be nil.
func NewVisitorService(store storage.Store, notifier Notifier) *VisitorService {
	return &VisitorService{
		store:    store,
		router:   approval.NewRouter(store),
		notifier: orNop(notifier),
		now:      systemClock,
	}
}

// CreateWalkIn registers a pending walk-in visitor under the requested tenant
// and alerts the assigned admins.
func (s *VisitorService) CreateWalkIn(ctx context.Context, req WalkInRequest, caller identity.Identity) (*models.Visitor, error) {
	if req.TenantID == nil {
		return nil, apperr.Validation("tenantId is required")
	}
	tenant, err := s.store.GetTenant(ctx, *req.TenantID)
	if err != nil {
		return nil, apperr.FromStore(err, "tenant")
	}

	admins, err := s.router.Resolve(ctx, tenant.ID, req.AssignedAdminID, req.AssignedAdminIDs)
	if err != nil {
		return nil, err
	}
	assigned := make([]uuid.UUID, 0, len(admins))
	for _, a := range admins {
		assigned = append(assigned, a.ID)
	}

	tenantID := tenant.ID
	visitor := &models.Visitor{
		VisitorName:    req.VisitorName,
		MobileNumber:   req.MobileNumber,
		VisitType:      req.VisitType,
		IDProof:        req.IDProof,
		ImageURL:       req.ImageURL,
		VisitDate:      models.DateOnly(s.now()),
		Status:         models.StatusPending,
		TenantID:       &tenantID,
		CreatedBy:      caller.SubjectRef(),
		AssignedAdmins: assigned,
	}
	if err := s.store.CreateVisitor(ctx, visitor); err != nil {
		return nil, apperr.FromStore(err, "visitor")
	}

	log.Info().
		Str("visitorID", visitor.ID.String()).
		Str("tenantID", tenantID.String()).
		Int("assignedAdmins", len(assigned)).
		Msg("walk-in visitor registered")

	notifyAll(s.notifier, approval.Recipients(admins),
		"New Walk-in Visitor",
		fmt.Sprintf("Visitor %s is waiting for approval.", visitor.VisitorName))
	return visitor, nil
}

// Schedule pre-approves a visitor on behalf of the calling tenant admin.
func (s *VisitorService) Schedule(ctx context.Context, req ScheduleRequest, caller identity.Identity) (*models.Visitor, error) {
	if !caller.IsTenantAdmin() || !caller.HasTenant() {
		return nil, apperr.Unauthorized("only tenant admins can schedule visitors")
	}
	visitDate := req.VisitDate
	if visitDate.IsZero() {
		visitDate = s.now()
	}

	visitor := &models.Visitor{
		VisitorName:  req.VisitorName,
		MobileNumber: req.MobileNumber,
		VisitType:    req.VisitType,
		IDProof:      req.IDProof,
		ImageURL:     req.ImageURL,
		VisitDate:    models.DateOnly(visitDate),
		Status:       models.StatusApproved,
		TenantID:     models.CopyID(caller.TenantID),
		CreatedBy:    caller.SubjectRef(),
		ApprovedBy:   caller.SubjectRef(),
	}
	if err := s.store.CreateVisitor(ctx, visitor); err != nil {
		return nil, apperr.FromStore(err, "visitor")
	}
	log.Info().Str("visitorID", visitor.ID.String()).Str("tenantID", caller.TenantID.String()).Msg("visitor scheduled")
	return visitor, nil
}

// UpdateScheduled edits a visitor that has not entered yet.
func (s *VisitorService) UpdateScheduled(ctx context.Context, id uuid.UUID, upd VisitorUpdate, caller identity.Identity) (*models.Visitor, error) {
	visitor, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := approval.Authorize(visitor, caller); err != nil {
		return nil, err
	}
	if visitor.Status == models.StatusCheckedIn || visitor.Status == models.StatusCheckedOut {
		return nil, apperr.InvalidState("cannot update a visitor who is %s", visitor.Status)
	}

	if upd.VisitorName != nil {
		visitor.VisitorName = *upd.VisitorName
	}
	if upd.MobileNumber != nil {
		visitor.MobileNumber = *upd.MobileNumber
	}
	if upd.VisitType != nil {
		visitor.VisitType = *upd.VisitType
	}
	if upd.IDProof != nil {
		visitor.IDProof = *upd.IDProof
	}
	if upd.VisitDate != nil {
		visitor.VisitDate = models.DateOnly(*upd.VisitDate)
	}
	if err := s.store.UpdateVisitor(ctx, visitor); err != nil {
		return nil, apperr.FromStore(err, "visitor")
	}
	return visitor, nil
}

// ApproveOrReject records caller's decision on a pending visitor, writes the
// decision to the ledger and tells security staff.
func (s *VisitorService) ApproveOrReject(ctx context.Context, id uuid.UUID, d Decision, caller identity.Identity) (*models.Visitor, error) {
	if d.Status != models.StatusApproved && d.Status != models.StatusRejected {
		return nil, apperr.Validation("status must be %s or %s", models.StatusApproved, models.StatusRejected)
	}
	visitor, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if visitor.Status != models.StatusPending {
		return nil, apperr.AlreadyProcessed(visitor.Status)
	}
	if err := approval.Authorize(visitor, caller); err != nil {
		log.Warn().
			Str("visitorID", id.String()).
			Str("adminID", caller.SubjectID.String()).
			Msg("decision refused")
		return nil, err
	}

	visitor.Status = d.Status
	visitor.ApprovedBy = caller.SubjectRef()
	if d.Status == models.StatusRejected {
		visitor.RejectionRemarks = d.Remarks
	}
	if err := s.store.UpdateVisitor(ctx, visitor); err != nil {
		return nil, apperr.FromStore(err, "visitor")
	}
	log.Info().
		Str("visitorID", id.String()).
		Str("adminID", caller.SubjectID.String()).
		Str("status", string(d.Status)).
		Msg("visitor decided")

	if err := s.store.CreateVisitorHistory(ctx, models.NewVisitorHistory(visitor)); err != nil {
		log.Error().Err(err).Str("visitorID", id.String()).Msg("failed to record decision in history")
	}

	s.notifyDecision(ctx, visitor, caller)
	return visitor, nil
}

func (s *VisitorService) notifyDecision(ctx context.Context, visitor *models.Visitor, caller identity.Identity) {
	adminName := "Admin"
	if admin, err := s.store.GetUser(ctx, caller.SubjectID); err == nil && strings.TrimSpace(admin.FullName) != "" {
		adminName = admin.FullName
	}
	guards, err := s.store.ListUsersByRole(ctx, models.RoleSecurityUser)
	if err != nil {
		log.Warn().Err(err).Str("visitorID", visitor.ID.String()).Msg("failed to load security users for notification")
		return
	}

	verb := "Approved"
	if visitor.Status == models.StatusRejected {
		verb = "Rejected"
	}
	notifyAll(s.notifier, approval.Recipients(guards),
		fmt.Sprintf("Visitor %s By %s", verb, adminName),
		fmt.Sprintf("Visitor %s for %s", strings.ToLower(verb), visitor.VisitorName))
}

// CheckIn lets an approved visitor in. The ledger row opened by the approval
// is stamped in place; visitors without one get a fresh row.
func (s *VisitorService) CheckIn(ctx context.Context, id uuid.UUID, caller identity.Identity) (*models.Visitor, error) {
	visitor, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if visitor.Status != models.StatusApproved {
		return nil, apperr.InvalidState("visitor not approved: %s", visitor.Status)
	}
	if open, err := s.store.FindOpenVisitorByMobile(ctx, visitor.MobileNumber); err == nil && open.ID != visitor.ID {
		return nil, apperr.Conflict("visitor with mobile %s is already checked in", visitor.MobileNumber)
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	visitor.Status = models.StatusCheckedIn
	visitor.CheckInTime = s.now.stamp()
	if err := s.store.UpdateVisitor(ctx, visitor); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("visitor with mobile %s is already checked in", visitor.MobileNumber)
		}
		return nil, apperr.FromStore(err, "visitor")
	}
	log.Info().Str("visitorID", id.String()).Str("by", caller.SubjectID.String()).Msg("visitor checked in")

	s.openHistory(ctx, visitor)
	return visitor, nil
}

func (s *VisitorService) openHistory(ctx context.Context, visitor *models.Visitor) {
	entries, err := s.store.ListVisitorHistory(ctx, visitor.ID)
	if err != nil {
		log.Error().Err(err).Str("visitorID", visitor.ID.String()).Msg("failed to load visitor history")
		return
	}
	for _, h := range entries {
		if h.CheckInTime == nil && h.Status == models.StatusApproved {
			h.Status = visitor.Status
			h.CheckInTime = models.CopyTime(visitor.CheckInTime)
			if err := s.store.UpdateVisitorHistory(ctx, h); err != nil {
				log.Error().Err(err).Str("visitorID", visitor.ID.String()).Msg("failed to stamp visitor history")
			}
			return
		}
	}
	if err := s.store.CreateVisitorHistory(ctx, models.NewVisitorHistory(visitor)); err != nil {
		log.Error().Err(err).Str("visitorID", visitor.ID.String()).Msg("failed to open visitor history")
	}
}

// CheckOut records the visitor leaving and closes the open ledger row. Unlike
// vehicles and staff, no prior status is required.
func (s *VisitorService) CheckOut(ctx context.Context, id uuid.UUID, caller identity.Identity) (*models.Visitor, error) {
	visitor, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if visitor.Status != models.StatusCheckedIn {
		// Allowed for visitors; only vehicles and staff enforce CHECKED_IN here.
		log.Warn().
			Str("visitorID", id.String()).
			Str("status", string(visitor.Status)).
			Msg("visitor checked out without being checked in")
	}

	visitor.Status = models.StatusCheckedOut
	visitor.CheckOutTime = s.now.stamp()
	if err := s.store.UpdateVisitor(ctx, visitor); err != nil {
		return nil, apperr.FromStore(err, "visitor")
	}
	log.Info().Str("visitorID", id.String()).Str("by", caller.SubjectID.String()).Msg("visitor checked out")

	entry, err := s.store.FindOpenVisitorHistory(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Warn().Str("visitorID", id.String()).Msg("no open history row to close")
	case err != nil:
		log.Error().Err(err).Str("visitorID", id.String()).Msg("failed to load open visitor history")
	default:
		entry.Status = visitor.Status
		entry.CheckOutTime = models.CopyTime(visitor.CheckOutTime)
		if err := s.store.UpdateVisitorHistory(ctx, entry); err != nil {
			log.Error().Err(err).Str("visitorID", id.String()).Msg("failed to close visitor history")
		}
	}
	return visitor, nil
}

// Delete removes a visitor. Tenant admins may only delete their own tenant's
// visitors. History rows are kept.
func (s *VisitorService) Delete(ctx context.Context, id uuid.UUID, caller identity.Identity) error {
	visitor, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if caller.IsTenantAdmin() && !caller.SameTenant(visitor.TenantID) {
		return apperr.Unauthorized("visitor does not belong to your tenant")
	}
	if err := s.store.DeleteVisitor(ctx, id); err != nil {
		return apperr.FromStore(err, "visitor")
	}
	log.Info().Str("visitorID", id.String()).Msg("visitor deleted")
	return nil
}

// Get returns one visitor.
func (s *VisitorService) Get(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	return s.get(ctx, id)
}

func (s *VisitorService) get(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	visitor, err := s.store.GetVisitor(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "visitor")
	}
	return visitor, nil
}

// History returns every ledger row of a visitor, oldest first.
func (s *VisitorService) History(ctx context.Context, id uuid.UUID) ([]*models.VisitorHistory, error) {
	entries, err := s.store.ListVisitorHistory(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orEmpty(entries), nil
}

func (s *VisitorService) list(ctx context.Context, filter storage.VisitorFilter) ([]*models.Visitor, error) {
	visitors, err := s.store.ListVisitors(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orEmpty(visitors), nil
}

// ListForDate lists visitors expected on the given day.
func (s *VisitorService) ListForDate(ctx context.Context, day time.Time) ([]*models.Visitor, error) {
	d := models.DateOnly(day)
	return s.list(ctx, storage.VisitorFilter{VisitDate: &d})
}

// ListCheckedIn lists visitors currently inside.
func (s *VisitorService) ListCheckedIn(ctx context.Context) ([]*models.Visitor, error) {
	return s.list(ctx, storage.VisitorFilter{Presence: storage.PresenceInside})
}

// ListCheckedOut lists visitors who have left.
func (s *VisitorService) ListCheckedOut(ctx context.Context) ([]*models.Visitor, error) {
	return s.list(ctx, storage.VisitorFilter{Presence: storage.PresenceLeft})
}

// ListPendingForTenant lists every pending visitor of the caller's tenant.
func (s *VisitorService) ListPendingForTenant(ctx context.Context, caller identity.Identity) ([]*models.Visitor, error) {
	if !caller.HasTenant() {
		return []*models.Visitor{}, nil
	}
	return s.list(ctx, storage.VisitorFilter{
		TenantID: caller.TenantID,
		Statuses: []models.Status{models.StatusPending},
	})
}

// ListPendingForAdmin lists pending visitors explicitly assigned to caller.
func (s *VisitorService) ListPendingForAdmin(ctx context.Context, caller identity.Identity) ([]*models.Visitor, error) {
	visitors, err := s.router.PendingFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	return orEmpty(visitors), nil
}

// ListTodayForTenant lists the caller tenant's visitors due today.
func (s *VisitorService) ListTodayForTenant(ctx context.Context, caller identity.Identity) ([]*models.Visitor, error) {
	if !caller.HasTenant() {
		return []*models.Visitor{}, nil
	}
	today := models.DateOnly(s.now())
	return s.list(ctx, storage.VisitorFilter{TenantID: caller.TenantID, VisitDate: &today})
}

// ListForTenant lists all visitors of the caller's tenant.
func (s *VisitorService) ListForTenant(ctx context.Context, caller identity.Identity) ([]*models.Visitor, error) {
	if !caller.HasTenant() {
		return []*models.Visitor{}, nil
	}
	return s.list(ctx, storage.VisitorFilter{TenantID: caller.TenantID})
}
