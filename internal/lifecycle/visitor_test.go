package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/models"
)

func TestWalkInApprovalScenario(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	a1 := f.addAdmin(t, tenant, "Alice", "tok-a1")
	a2 := f.addAdmin(t, tenant, "Bob", "")
	a3 := f.addAdmin(t, tenant, "Carol", "tok-a3")

	visitor, err := f.visitors.CreateWalkIn(f.ctx, WalkInRequest{
		VisitorName:      "Jane Doe",
		MobileNumber:     "9000000001",
		TenantID:         &tenant.ID,
		AssignedAdminID:  &a1.SubjectID,
		AssignedAdminIDs: []uuid.UUID{a2.SubjectID, a1.SubjectID},
	}, f.guard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, visitor.Status)
	assert.Equal(t, []uuid.UUID{a1.SubjectID, a2.SubjectID}, visitor.AssignedAdmins)
	assert.Equal(t, f.guard.SubjectID, *visitor.CreatedBy)

	// Only A1 holds a push token.
	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "tok-a1", msgs[0].token)
	assert.Equal(t, "New Walk-in Visitor", msgs[0].title)
	assert.Equal(t, "Visitor Jane Doe is waiting for approval.", msgs[0].body)

	_, err = f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusApproved}, a3)
	require.True(t, errors.Is(err, apperr.ErrUnauthorized), "got %v", err)
	stored, err := f.visitors.Get(f.ctx, visitor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	approved, err := f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusApproved}, a1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, a1.SubjectID, *approved.ApprovedBy)

	history, err := f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusApproved, history[0].Status)
	assert.Nil(t, history[0].CheckInTime)
	approvalRow := history[0].ID

	msgs = f.notifier.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "tok-guard", msgs[1].token)
	assert.Equal(t, "Visitor Approved By Alice", msgs[1].title)
	assert.Equal(t, "Visitor approved for Jane Doe", msgs[1].body)

	checkedIn, err := f.visitors.CheckIn(f.ctx, visitor.ID, f.guard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckInTime)

	history, err = f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1, "check-in stamps the approval row in place")
	assert.Equal(t, approvalRow, history[0].ID)
	require.NotNil(t, history[0].CheckInTime)
	assert.Equal(t, models.StatusCheckedIn, history[0].Status)

	checkedOut, err := f.visitors.CheckOut(f.ctx, visitor.ID, f.guard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, checkedOut.Status)

	history, err = f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].CheckOutTime)
	assert.Equal(t, models.StatusCheckedOut, history[0].Status)
	assert.False(t, history[0].CheckOutTime.Before(*history[0].CheckInTime))
}

func TestApproveAlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	a1 := f.addAdmin(t, tenant, "Alice", "")
	a2 := f.addAdmin(t, tenant, "Bob", "")

	visitor, err := f.visitors.CreateWalkIn(f.ctx, WalkInRequest{
		VisitorName: "Jane", MobileNumber: "1", TenantID: &tenant.ID,
	}, f.guard)
	require.NoError(t, err)

	_, err = f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusApproved}, a1)
	require.NoError(t, err)

	_, err = f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusRejected, Remarks: "late"}, a2)
	require.True(t, errors.Is(err, apperr.ErrAlreadyProcessed))
	status, ok := apperr.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, status)

	stored, err := f.visitors.Get(f.ctx, visitor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Equal(t, a1.SubjectID, *stored.ApprovedBy)
	assert.Empty(t, stored.RejectionRemarks)

	history, err := f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestApproveOpenAssignment(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	other := f.addTenant(t, "Globex")
	anyAdmin := f.addAdmin(t, tenant, "Alice", "")
	outsider := f.addAdmin(t, other, "Olga", "")

	visitor, err := f.visitors.CreateWalkIn(f.ctx, WalkInRequest{
		VisitorName: "Jane", MobileNumber: "1", TenantID: &tenant.ID,
	}, f.guard)
	require.NoError(t, err)
	assert.Empty(t, visitor.AssignedAdmins)

	_, err = f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusApproved}, outsider)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusApproved}, anyAdmin)
	assert.NoError(t, err)
}

func TestRejectWritesTerminalHistory(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	admin := f.addAdmin(t, tenant, "", "")

	visitor, err := f.visitors.CreateWalkIn(f.ctx, WalkInRequest{
		VisitorName: "Jane", MobileNumber: "1", TenantID: &tenant.ID,
	}, f.guard)
	require.NoError(t, err)

	rejected, err := f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusRejected, Remarks: "no appointment"}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "no appointment", rejected.RejectionRemarks)

	history, err := f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusRejected, history[0].Status)
	assert.Equal(t, "no appointment", history[0].RejectionRemarks)

	msgs := f.notifier.messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Visitor Rejected By Admin", msgs[len(msgs)-1].title)

	_, err = f.visitors.CheckIn(f.ctx, visitor.ID, f.guard)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestApproveRejectsUnknownDecision(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	admin := f.addAdmin(t, tenant, "Alice", "")

	_, err := f.visitors.ApproveOrReject(f.ctx, uuid.New(), Decision{Status: models.StatusCheckedIn}, admin)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = f.visitors.ApproveOrReject(f.ctx, uuid.New(), Decision{Status: models.StatusApproved}, admin)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCreateWalkInValidation(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	other := f.addTenant(t, "Globex")
	foreignAdmin := f.addAdmin(t, other, "Olga", "")
	missing := uuid.New()

	tests := []struct {
		name string
		req  WalkInRequest
		kind error
	}{
		{"no tenant", WalkInRequest{VisitorName: "J", MobileNumber: "1"}, apperr.ErrValidation},
		{"unknown tenant", WalkInRequest{VisitorName: "J", MobileNumber: "1", TenantID: &missing}, apperr.ErrNotFound},
		{"unknown admin", WalkInRequest{VisitorName: "J", MobileNumber: "1", TenantID: &tenant.ID, AssignedAdminIDs: []uuid.UUID{missing}}, apperr.ErrNotFound},
		{"foreign admin is only logged", WalkInRequest{VisitorName: "J", MobileNumber: "1", TenantID: &tenant.ID, AssignedAdminID: &foreignAdmin.SubjectID}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.visitors.CreateWalkIn(f.ctx, tt.req, f.guard)
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestScheduledVisitor(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	admin := f.addAdmin(t, tenant, "Alice", "")

	_, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "Sam", MobileNumber: "2"}, f.guard)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	visitor, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "Sam", MobileNumber: "2"}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, visitor.Status)
	assert.Equal(t, admin.SubjectID, *visitor.ApprovedBy)
	assert.Equal(t, admin.SubjectID, *visitor.CreatedBy)
	assert.True(t, visitor.BelongsTo(&tenant.ID))

	history, err := f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.visitors.CheckIn(f.ctx, visitor.ID, f.guard)
	require.NoError(t, err)

	history, err = f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1, "check-in without an approval row opens a fresh one")
	assert.Equal(t, models.StatusCheckedIn, history[0].Status)
	assert.NotNil(t, history[0].CheckInTime)
}

func TestUpdateScheduled(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	other := f.addTenant(t, "Globex")
	admin := f.addAdmin(t, tenant, "Alice", "")
	outsider := f.addAdmin(t, other, "Olga", "")

	visitor, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "Sam", MobileNumber: "2"}, admin)
	require.NoError(t, err)

	name := "Samuel"
	tomorrow := epoch.Add(24 * time.Hour)
	updated, err := f.visitors.UpdateScheduled(f.ctx, visitor.ID, VisitorUpdate{VisitorName: &name, VisitDate: &tomorrow}, admin)
	require.NoError(t, err)
	assert.Equal(t, "Samuel", updated.VisitorName)
	assert.Equal(t, "2", updated.MobileNumber)
	assert.Equal(t, models.DateOnly(tomorrow), updated.VisitDate)

	_, err = f.visitors.UpdateScheduled(f.ctx, visitor.ID, VisitorUpdate{VisitorName: &name}, outsider)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = f.visitors.CheckIn(f.ctx, visitor.ID, f.guard)
	require.NoError(t, err)
	_, err = f.visitors.UpdateScheduled(f.ctx, visitor.ID, VisitorUpdate{VisitorName: &name}, admin)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestVisitorCheckOutWithoutCheckIn(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	admin := f.addAdmin(t, tenant, "Alice", "")

	visitor, err := f.visitors.CreateWalkIn(f.ctx, WalkInRequest{VisitorName: "J", MobileNumber: "1", TenantID: &tenant.ID}, f.guard)
	require.NoError(t, err)
	_, err = f.visitors.ApproveOrReject(f.ctx, visitor.ID, Decision{Status: models.StatusApproved}, admin)
	require.NoError(t, err)

	out, err := f.visitors.CheckOut(f.ctx, visitor.ID, f.guard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, out.Status)
	assert.Nil(t, out.CheckInTime)

	history, err := f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].CheckOutTime)
}

func TestVisitorCheckInConflict(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	admin := f.addAdmin(t, tenant, "Alice", "")

	first, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "Sam", MobileNumber: "7"}, admin)
	require.NoError(t, err)
	second, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "Sam", MobileNumber: "7"}, admin)
	require.NoError(t, err)

	_, err = f.visitors.CheckIn(f.ctx, first.ID, f.guard)
	require.NoError(t, err)
	_, err = f.visitors.CheckIn(f.ctx, second.ID, f.guard)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	stored, err := f.visitors.Get(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestVisitorLists(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	a1 := f.addAdmin(t, tenant, "Alice", "")
	a2 := f.addAdmin(t, tenant, "Bob", "")

	assigned, err := f.visitors.CreateWalkIn(f.ctx, WalkInRequest{VisitorName: "A", MobileNumber: "1", TenantID: &tenant.ID, AssignedAdminID: &a1.SubjectID}, f.guard)
	require.NoError(t, err)
	_, err = f.visitors.CreateWalkIn(f.ctx, WalkInRequest{VisitorName: "B", MobileNumber: "2", TenantID: &tenant.ID}, f.guard)
	require.NoError(t, err)
	scheduled, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "C", MobileNumber: "3"}, a2)
	require.NoError(t, err)
	_, err = f.visitors.CheckIn(f.ctx, scheduled.ID, f.guard)
	require.NoError(t, err)

	pending, err := f.visitors.ListPendingForTenant(f.ctx, a2)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	mine, err := f.visitors.ListPendingForAdmin(f.ctx, a1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, assigned.ID, mine[0].ID)

	theirs, err := f.visitors.ListPendingForAdmin(f.ctx, a2)
	require.NoError(t, err)
	assert.Empty(t, theirs)
	assert.NotNil(t, theirs)

	inside, err := f.visitors.ListCheckedIn(f.ctx)
	require.NoError(t, err)
	require.Len(t, inside, 1)
	assert.Equal(t, scheduled.ID, inside[0].ID)

	left, err := f.visitors.ListCheckedOut(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, left)

	today, err := f.visitors.ListTodayForTenant(f.ctx, a1)
	require.NoError(t, err)
	assert.Len(t, today, 3)

	all, err := f.visitors.ListForTenant(f.ctx, a1)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := f.visitors.ListForTenant(f.ctx, f.guard)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteVisitor(t *testing.T) {
	f := newFixture(t)
	tenant := f.addTenant(t, "Acme")
	other := f.addTenant(t, "Globex")
	admin := f.addAdmin(t, tenant, "Alice", "")
	outsider := f.addAdmin(t, other, "Olga", "")

	visitor, err := f.visitors.Schedule(f.ctx, ScheduleRequest{VisitorName: "Sam", MobileNumber: "2"}, admin)
	require.NoError(t, err)
	_, err = f.visitors.CheckIn(f.ctx, visitor.ID, f.guard)
	require.NoError(t, err)

	assert.True(t, errors.Is(f.visitors.Delete(f.ctx, visitor.ID, outsider), apperr.ErrUnauthorized))
	require.NoError(t, f.visitors.Delete(f.ctx, visitor.ID, admin))
	assert.True(t, errors.Is(f.visitors.Delete(f.ctx, visitor.ID, admin), apperr.ErrNotFound))

	history, err := f.visitors.History(f.ctx, visitor.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "history outlives the visitor")
}
