package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/auth"
	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/lifecycle"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/report"
	"github.com/smartsecurity/access-register/internal/storage/memory"
	"github.com/smartsecurity/access-register/internal/tenancy"
	"github.com/smartsecurity/access-register/pkg/crypto"
)

type testServer struct {
	t      *testing.T
	store  *memory.Store
	jwt    *auth.JWTManager
	srv    *RESTServer
	tenant *models.Tenant
	tokens map[models.Role]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Name: "access-register", Version: "test"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			Issuer:          "access-register",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}
	store := memory.New()
	jwt := auth.NewJWTManager(&cfg.JWT)
	svc := Services{
		Auth:     auth.NewService(store, jwt),
		Visitors: lifecycle.NewVisitorService(store, nil),
		Vehicles: lifecycle.NewVehicleService(store),
		Staff:    lifecycle.NewStaffService(store),
		Tenants:  tenancy.NewService(store, nil),
		Reports:  report.NewReader(store, nil, cfg.Report),
	}
	ts := &testServer{
		t:      t,
		store:  store,
		jwt:    jwt,
		srv:    NewRESTServer(cfg, jwt, svc),
		tokens: make(map[models.Role]string),
	}

	ts.tenant = &models.Tenant{CompanyName: "Acme", CompanyCode: "ACM", Status: models.AccountActive}
	require.NoError(t, store.CreateTenant(context.Background(), ts.tenant))
	ts.addUser("root@example.test", models.RoleSuperAdmin, nil)
	ts.addUser("alice@acme.test", models.RoleTenantAdmin, &ts.tenant.ID)
	ts.addUser("gate@example.test", models.RoleSecurityUser, nil)
	return ts
}

func (ts *testServer) addUser(email string, role models.Role, tenantID *uuid.UUID) *models.User {
	hash, err := crypto.HashPassword("secret1")
	require.NoError(ts.t, err)
	u := &models.User{Email: email, FullName: email, PasswordHash: hash, Role: role, Status: models.AccountActive, TenantID: tenantID}
	require.NoError(ts.t, ts.store.CreateUser(context.Background(), u))
	pair, err := ts.jwt.GenerateTokenPair(u)
	require.NoError(ts.t, err)
	ts.tokens[role] = pair.AccessToken
	return u
}

func (ts *testServer) do(role models.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok, ok := ts.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestAuthenticationRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("", http.MethodGet, "/visitors/checked-in", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/visitors/checked-in", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do("", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleGating(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		role   models.Role
		method string
		path   string
		want   int
	}{
		{models.RoleTenantAdmin, http.MethodPost, "/visitors", http.StatusForbidden},
		{models.RoleSecurityUser, http.MethodPost, "/visitors/scheduled", http.StatusForbidden},
		{models.RoleSecurityUser, http.MethodGet, "/tenants", http.StatusForbidden},
		{models.RoleTenantAdmin, http.MethodGet, "/security-users", http.StatusForbidden},
		{models.RoleSecurityUser, http.MethodGet, "/reports/dashboard", http.StatusForbidden},
		{models.RoleTenantAdmin, http.MethodGet, "/reports/staff", http.StatusForbidden},
		{models.RoleSuperAdmin, http.MethodGet, "/tenants", http.StatusOK},
		{models.RoleTenantAdmin, http.MethodGet, "/reports/dashboard", http.StatusOK},
		{models.RoleSecurityUser, http.MethodGet, "/staff", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s as %s", tt.method, tt.path, tt.role), func(t *testing.T) {
			rec := ts.do(tt.role, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("", http.MethodPost, "/auth/login", map[string]string{"email": "gate@example.test", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair auth.TokenPair
	decodeBody(t, rec, &pair)
	require.NotEmpty(t, pair.AccessToken)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	decodeBody(t, rec, &me)
	assert.Equal(t, string(models.RoleSecurityUser), me["role"])

	rec = ts.do("", http.MethodPost, "/auth/login", map[string]string{"email": "gate@example.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do("", http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalkInFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(models.RoleSecurityUser, http.MethodPost, "/visitors", map[string]interface{}{
		"visitorName":  "Jane Doe",
		"mobileNumber": "9000000001",
		"tenantId":     ts.tenant.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var visitor models.Visitor
	decodeBody(t, rec, &visitor)
	assert.Equal(t, models.StatusPending, visitor.Status)
	base := "/visitors/" + visitor.ID.String()

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-in", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "not approved yet")

	rec = ts.do(models.RoleTenantAdmin, http.MethodGet, "/visitors/tenant/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.Visitor
	decodeBody(t, rec, &pending)
	assert.Len(t, pending, 1)

	rec = ts.do(models.RoleTenantAdmin, http.MethodPost, base+"/decision", map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(models.RoleTenantAdmin, http.MethodPost, base+"/decision", map[string]string{"status": "REJECTED"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, string(models.StatusApproved), body["status"])

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-in", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-out", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &visitor)
	assert.Equal(t, models.StatusCheckedOut, visitor.Status)

	rec = ts.do(models.RoleSecurityUser, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.VisitorHistory
	decodeBody(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusCheckedOut, history[0].Status)
	assert.NotNil(t, history[0].CheckOutTime)

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/visitors/not-a-uuid/check-in", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/visitors/"+uuid.NewString()+"/check-in", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleVisitor(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(models.RoleTenantAdmin, http.MethodPost, "/visitors/scheduled", map[string]string{
		"visitorName":  "Bob",
		"mobileNumber": "9000000002",
		"visitDate":    "2026-11-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var visitor models.Visitor
	decodeBody(t, rec, &visitor)
	assert.Equal(t, models.StatusApproved, visitor.Status)
	assert.Equal(t, "2026-11-02", visitor.VisitDate.Format(dateLayout))

	rec = ts.do(models.RoleTenantAdmin, http.MethodPost, "/visitors/scheduled", map[string]string{
		"visitorName":  "Bob",
		"mobileNumber": "9000000002",
		"visitDate":    "02/11/2026",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVehicleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	req := map[string]interface{}{"vehicleNumber": "KA-01-1234", "vehicleType": "CAR", "tenantId": ts.tenant.ID}

	rec := ts.do(models.RoleSecurityUser, http.MethodPost, "/vehicles", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var vehicle models.Vehicle
	decodeBody(t, rec, &vehicle)
	assert.Equal(t, "Acme", vehicle.Company)

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/vehicles", req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/vehicles/"+vehicle.ID.String()+"/check-out", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/vehicles/"+vehicle.ID.String()+"/confirm-entry", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(models.RoleSecurityUser, http.MethodGet, "/vehicles/by-number/ka-01-1234", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(models.RoleSecurityUser, http.MethodGet, "/vehicles/by-number/MH-12-0000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(models.RoleTenantAdmin, http.MethodGet, "/vehicles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var own []models.Vehicle
	decodeBody(t, rec, &own)
	assert.Len(t, own, 1)

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/vehicles/"+vehicle.ID.String()+"/check-out", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(models.RoleSuperAdmin, http.MethodGet, "/vehicles/"+vehicle.ID.String()+"/history?size=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page report.Page[models.VehicleHistory]
	decodeBody(t, rec, &page)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.Size)

	rec = ts.do(models.RoleSecurityUser, http.MethodPost, "/vehicles", map[string]interface{}{"vehicleNumber": "X-1", "vehicleType": "TANK"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantAdminVehicleScope(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	other := &models.Tenant{CompanyName: "Globex", CompanyCode: "GLX", Status: models.AccountActive}
	require.NoError(t, ts.store.CreateTenant(ctx, other))
	foreign := &models.Vehicle{VehicleNumber: "GL-1", Status: models.StatusPending, TenantID: &other.ID}
	require.NoError(t, ts.store.CreateVehicle(ctx, foreign))

	rec := ts.do(models.RoleTenantAdmin, http.MethodPut, "/vehicles/"+foreign.ID.String(), map[string]string{"driverName": "Eve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(models.RoleTenantAdmin, http.MethodDelete, "/vehicles/"+foreign.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(models.RoleSuperAdmin, http.MethodDelete, "/vehicles/"+foreign.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTenantDeleteRefusedWhileOccupied(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now()
	require.NoError(t, ts.store.CreateVehicle(context.Background(), &models.Vehicle{
		VehicleNumber: "KA-02", Status: models.StatusCheckedIn, TenantID: &ts.tenant.ID, CheckInTime: &now,
	}))

	rec := ts.do(models.RoleSuperAdmin, http.MethodDelete, "/tenants/"+ts.tenant.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestStaffShift(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(models.RoleSecurityUser, http.MethodPost, "/staff", map[string]string{"name": "Ravi", "mobileNumber": "9000000003"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var staff models.Staff
	decodeBody(t, rec, &staff)
	base := "/staff/" + staff.ID.String()

	assert.Equal(t, http.StatusUnprocessableEntity, ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-out", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-in", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-in", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(models.RoleSecurityUser, http.MethodPost, base+"/check-out", nil).Code)

	rec = ts.do(models.RoleSuperAdmin, http.MethodGet, "/reports/staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page report.Page[models.StaffHistory]
	decodeBody(t, rec, &page)
	assert.EqualValues(t, 1, page.Total)
}

func TestReportQueryValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(models.RoleSuperAdmin, http.MethodGet, "/reports/visitors?startDate=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(models.RoleSuperAdmin, http.MethodGet, "/reports/vehicles?tenantId=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(models.RoleSuperAdmin, http.MethodGet, "/reports/visitors?startDate=2026-05-02&endDate=2026-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(models.RoleTenantAdmin, http.MethodGet, "/reports/visitors?size=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page report.Page[models.VisitorHistory]
	decodeBody(t, rec, &page)
	assert.Equal(t, 100, page.Size)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("x"), http.StatusBadRequest},
		{apperr.Unauthorized("x"), http.StatusForbidden},
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Conflict("x"), http.StatusConflict},
		{apperr.InvalidState("x"), http.StatusUnprocessableEntity},
		{apperr.AlreadyProcessed(models.StatusRejected), http.StatusUnprocessableEntity},
		{apperr.Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
