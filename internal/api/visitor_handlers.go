package api

import (
	"net/http"
	"time"

	"github.com/smartsecurity/access-register/internal/lifecycle"
	"github.com/smartsecurity/access-register/internal/models"
)

// scheduleBody mirrors lifecycle.ScheduleRequest with a plain date.
type scheduleBody struct {
	VisitorName  string `json:"visitorName" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	VisitType    string `json:"visitType"`
	IDProof      string `json:"idProof"`
	ImageURL     string `json:"imageUrl"`
	VisitDate    string `json:"visitDate"`
}

type visitorUpdateBody struct {
	VisitorName  *string `json:"visitorName"`
	MobileNumber *string `json:"mobileNumber"`
	VisitType    *string `json:"visitType"`
	IDProof      *string `json:"idProof"`
	VisitDate    *string `json:"visitDate"`
}

// HandleCreateWalkIn registers a walk-in visitor awaiting approval
func (s *RESTServer) HandleCreateWalkIn(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.WalkInRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	visitor, err := s.svc.Visitors.CreateWalkIn(r.Context(), req, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, visitor)
}

// HandleScheduleVisitor pre-registers an approved visitor
func (s *RESTServer) HandleScheduleVisitor(w http.ResponseWriter, r *http.Request) {
	var body scheduleBody
	if err := s.decode(r, &body); err != nil {
		s.respondErr(w, r, err)
		return
	}
	day, err := parseDate(body.VisitDate)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	req := lifecycle.ScheduleRequest{
		VisitorName:  body.VisitorName,
		MobileNumber: body.MobileNumber,
		VisitType:    body.VisitType,
		IDProof:      body.IDProof,
		ImageURL:     body.ImageURL,
	}
	if day != nil {
		req.VisitDate = *day
	}
	visitor, err := s.svc.Visitors.Schedule(r.Context(), req, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, visitor)
}

// HandleUpdateVisitor edits a scheduled visitor
func (s *RESTServer) HandleUpdateVisitor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var body visitorUpdateBody
	if err := s.decode(r, &body); err != nil {
		s.respondErr(w, r, err)
		return
	}
	upd := lifecycle.VisitorUpdate{
		VisitorName:  body.VisitorName,
		MobileNumber: body.MobileNumber,
		VisitType:    body.VisitType,
		IDProof:      body.IDProof,
	}
	if body.VisitDate != nil {
		if upd.VisitDate, err = parseDate(*body.VisitDate); err != nil {
			s.respondErr(w, r, err)
			return
		}
	}
	visitor, err := s.svc.Visitors.UpdateScheduled(r.Context(), id, upd, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, visitor)
}

// HandleVisitorDecision approves or rejects a pending visitor
func (s *RESTServer) HandleVisitorDecision(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var d lifecycle.Decision
	if err := s.decode(r, &d); err != nil {
		s.respondErr(w, r, err)
		return
	}
	visitor, err := s.svc.Visitors.ApproveOrReject(r.Context(), id, d, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, visitor)
}

// HandleVisitorCheckIn lets an approved visitor in
func (s *RESTServer) HandleVisitorCheckIn(w http.ResponseWriter, r *http.Request) {
	s.visitorTransition(w, r, s.svc.Visitors.CheckIn)
}

// HandleVisitorCheckOut records a visitor leaving
func (s *RESTServer) HandleVisitorCheckOut(w http.ResponseWriter, r *http.Request) {
	s.visitorTransition(w, r, s.svc.Visitors.CheckOut)
}

func (s *RESTServer) visitorTransition(w http.ResponseWriter, r *http.Request, step transition[*models.Visitor]) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	visitor, err := step(r.Context(), id, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, visitor)
}

// HandleDeleteVisitor removes a visitor
func (s *RESTServer) HandleDeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.svc.Visitors.Delete(r.Context(), id, caller(r)); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetVisitor gets a visitor
func (s *RESTServer) HandleGetVisitor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	visitor, err := s.svc.Visitors.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, visitor)
}

// HandleVisitorHistory lists a visitor's ledger rows
func (s *RESTServer) HandleVisitorHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	entries, err := s.svc.Visitors.History(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

// HandleListVisitorsForDate lists visitors due on ?date=, today by default
func (s *RESTServer) HandleListVisitorsForDate(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if day == nil {
		now := time.Now()
		day = &now
	}
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListForDate(r.Context(), *day) })
}

// HandleListCheckedInVisitors lists visitors inside
func (s *RESTServer) HandleListCheckedInVisitors(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListCheckedIn(r.Context()) })
}

// HandleListCheckedOutVisitors lists visitors who left
func (s *RESTServer) HandleListCheckedOutVisitors(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListCheckedOut(r.Context()) })
}

// HandleListPendingForAdmin lists pending visitors assigned to the caller
func (s *RESTServer) HandleListPendingForAdmin(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListPendingForAdmin(r.Context(), caller(r)) })
}

// HandleListTenantPending lists every pending visitor of the caller's tenant
func (s *RESTServer) HandleListTenantPending(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListPendingForTenant(r.Context(), caller(r)) })
}

// HandleListTenantToday lists the caller tenant's visitors due today
func (s *RESTServer) HandleListTenantToday(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListTodayForTenant(r.Context(), caller(r)) })
}

// HandleListTenantVisitors lists all visitors of the caller's tenant
func (s *RESTServer) HandleListTenantVisitors(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Visitors.ListForTenant(r.Context(), caller(r)) })
}
