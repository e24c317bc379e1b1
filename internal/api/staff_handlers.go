package api

import (
	"net/http"

	"github.com/smartsecurity/access-register/internal/lifecycle"
	"github.com/smartsecurity/access-register/internal/models"
)

// HandleCreateStaff registers a staff member
func (s *RESTServer) HandleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.StaffRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	staff, err := s.svc.Staff.Create(r.Context(), req, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, staff)
}

// HandleUpdateStaff edits a staff member
func (s *RESTServer) HandleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var upd lifecycle.StaffUpdate
	if err := s.decode(r, &upd); err != nil {
		s.respondErr(w, r, err)
		return
	}
	staff, err := s.svc.Staff.Update(r.Context(), id, upd)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, staff)
}

// HandleDeleteStaff removes a staff member
func (s *RESTServer) HandleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.svc.Staff.Delete(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetStaff gets a staff member
func (s *RESTServer) HandleGetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	staff, err := s.svc.Staff.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, staff)
}

// HandleListStaff lists staff by name
func (s *RESTServer) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Staff.List(r.Context()) })
}

// HandleStaffCheckIn starts a shift
func (s *RESTServer) HandleStaffCheckIn(w http.ResponseWriter, r *http.Request) {
	s.staffTransition(w, r, s.svc.Staff.CheckIn)
}

// HandleStaffCheckOut ends a shift
func (s *RESTServer) HandleStaffCheckOut(w http.ResponseWriter, r *http.Request) {
	s.staffTransition(w, r, s.svc.Staff.CheckOut)
}

func (s *RESTServer) staffTransition(w http.ResponseWriter, r *http.Request, step transition[*models.Staff]) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	staff, err := step(r.Context(), id, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, staff)
}
