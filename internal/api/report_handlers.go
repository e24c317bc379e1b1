package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/apperr"
)

// HandleDashboard returns the headline counters
func (s *RESTServer) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Reports.Dashboard(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

// HandleVisitorReport pages visitor history
func (s *RESTServer) HandleVisitorReport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	tenantID, err := s.reportTenant(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	page, err := s.svc.Reports.VisitorReport(r.Context(), rng, tenantID, parsePage(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

// HandleVehicleReport pages vehicle history
func (s *RESTServer) HandleVehicleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	tenantID, err := s.reportTenant(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	page, err := s.svc.Reports.VehicleReport(r.Context(), rng, tenantID, parsePage(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

// HandleStaffReport pages staff shifts
func (s *RESTServer) HandleStaffReport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	page, err := s.svc.Reports.StaffReport(r.Context(), rng, parsePage(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

// reportTenant picks the tenant filter. Tenant admins are pinned to their own
// tenant; super admins may pass ?tenantId=.
func (s *RESTServer) reportTenant(r *http.Request) (*uuid.UUID, error) {
	c := caller(r)
	if c.IsTenantAdmin() {
		if !c.HasTenant() {
			return nil, apperr.Unauthorized("tenant admin has no tenant")
		}
		return c.TenantID, nil
	}
	raw := r.URL.Query().Get("tenantId")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("invalid tenantId")
	}
	return &id, nil
}
