package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage/memory"
)

type sentMessage struct {
	token, title, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) SendAsync(token, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{token: token, title: title, body: body})
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

// tickingClock advances one minute per reading so successive stamps are
// strictly ordered.
func tickingClock(start time.Time) clock {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Minute)
		return cur
	}
}

var epoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	notifier *recordingNotifier
	visitors *VisitorService
	vehicles *VehicleService
	staff    *StaffService
	guard    identity.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	tick := tickingClock(epoch)

	f := &fixture{
		ctx:      context.Background(),
		store:    store,
		notifier: notifier,
		visitors: NewVisitorService(store, notifier),
		vehicles: NewVehicleService(store),
		staff:    NewStaffService(store),
	}
	f.visitors.now = tick
	f.vehicles.now = tick
	f.staff.now = tick
	f.guard = f.addUser(t, "Gate One", models.RoleSecurityUser, nil, "tok-guard")
	return f
}

func (f *fixture) addTenant(t *testing.T, name string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{CompanyName: name, CompanyCode: name + "-code", Status: models.AccountActive}
	require.NoError(t, f.store.CreateTenant(f.ctx, tenant))
	return tenant
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role, tenantID *uuid.UUID, token string) identity.Identity {
	t.Helper()
	u := &models.User{
		Email:    uuid.NewString() + "@example.test",
		FullName: name,
		Role:     role,
		Status:   models.AccountActive,
		TenantID: models.CopyID(tenantID),
		FCMToken: token,
	}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return identity.FromUser(u)
}

func (f *fixture) addAdmin(t *testing.T, tenant *models.Tenant, name, token string) identity.Identity {
	t.Helper()
	return f.addUser(t, name, models.RoleTenantAdmin, &tenant.ID, token)
}

func TestOrEmpty(t *testing.T) {
	require.NotNil(t, orEmpty[*models.Visitor](nil))
	require.Len(t, orEmpty([]int{1, 2}), 2)
}

func TestNilNotifierIsSilent(t *testing.T) {
	svc := NewVisitorService(memory.New(), nil)
	require.NotPanics(t, func() { svc.notifier.SendAsync("t", "title", "body") })
}
