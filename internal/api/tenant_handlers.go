package api

import (
	"net/http"

	"github.com/smartsecurity/access-register/internal/auth"
	"github.com/smartsecurity/access-register/internal/tenancy"
)

// ========== Tenant handlers ==========

// HandleListTenants lists tenants with their admins
func (s *RESTServer) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Tenants.ListTenants(r.Context(), caller(r)) })
}

// HandleCreateTenant creates a tenant
func (s *RESTServer) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenancy.TenantRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	tenant, err := s.svc.Tenants.CreateTenant(r.Context(), req, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, tenant)
}

// HandleGetTenant gets a tenant
func (s *RESTServer) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	tenant, err := s.svc.Tenants.GetTenant(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleUpdateTenant updates a tenant
func (s *RESTServer) HandleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var upd tenancy.TenantUpdate
	if err := s.decode(r, &upd); err != nil {
		s.respondErr(w, r, err)
		return
	}
	tenant, err := s.svc.Tenants.UpdateTenant(r.Context(), id, upd, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleDeleteTenant deletes a tenant with no open sessions
func (s *RESTServer) HandleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.svc.Tenants.DeleteTenant(r.Context(), id, caller(r)); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListTenantAdmins lists a tenant's admins
func (s *RESTServer) HandleListTenantAdmins(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Tenants.ListTenantAdmins(r.Context(), id, caller(r)) })
}

// HandleAddTenantAdmin creates an admin under a tenant
func (s *RESTServer) HandleAddTenantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var req auth.NewAccount
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	admin, err := s.svc.Tenants.AddTenantAdmin(r.Context(), id, req, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, admin)
}

// HandleUpdateTenantAdmin edits an admin account
func (s *RESTServer) HandleUpdateTenantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var upd tenancy.AdminUpdate
	if err := s.decode(r, &upd); err != nil {
		s.respondErr(w, r, err)
		return
	}
	admin, err := s.svc.Tenants.UpdateTenantAdmin(r.Context(), id, upd, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, admin)
}

// HandleDeleteTenantAdmin removes an admin account
func (s *RESTServer) HandleDeleteTenantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.svc.Tenants.DeleteTenantAdmin(r.Context(), id, caller(r)); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
