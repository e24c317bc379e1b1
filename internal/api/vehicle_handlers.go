package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartsecurity/access-register/internal/lifecycle"
	"github.com/smartsecurity/access-register/internal/models"
)

// HandleCreateVehicle registers a vehicle at the gate
func (s *RESTServer) HandleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.VehicleRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	vehicle, err := s.svc.Vehicles.Create(r.Context(), req, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, vehicle)
}

// HandleConfirmVehicleEntry lets a registered vehicle in
func (s *RESTServer) HandleConfirmVehicleEntry(w http.ResponseWriter, r *http.Request) {
	s.vehicleTransition(w, r, s.svc.Vehicles.ConfirmEntry)
}

// HandleVehicleCheckOut records a vehicle leaving
func (s *RESTServer) HandleVehicleCheckOut(w http.ResponseWriter, r *http.Request) {
	s.vehicleTransition(w, r, s.svc.Vehicles.CheckOut)
}

func (s *RESTServer) vehicleTransition(w http.ResponseWriter, r *http.Request, step transition[*models.Vehicle]) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	vehicle, err := step(r.Context(), id, caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vehicle)
}

// HandleUpdateVehicle edits a vehicle. Tenant admins are held to their own
// tenant's vehicles.
func (s *RESTServer) HandleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var upd lifecycle.VehicleUpdate
	if err := s.decode(r, &upd); err != nil {
		s.respondErr(w, r, err)
		return
	}

	c := caller(r)
	update := s.svc.Vehicles.Update
	if c.IsTenantAdmin() {
		update = s.svc.Vehicles.UpdateForTenant
	}
	vehicle, err := update(r.Context(), id, upd, c)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vehicle)
}

// HandleDeleteVehicle removes a vehicle
func (s *RESTServer) HandleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	c := caller(r)
	if c.IsTenantAdmin() {
		err = s.svc.Vehicles.DeleteForTenant(r.Context(), id, c)
	} else {
		err = s.svc.Vehicles.Delete(r.Context(), id)
	}
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetVehicle gets a vehicle
func (s *RESTServer) HandleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	vehicle, err := s.svc.Vehicles.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vehicle)
}

// HandleVehicleHistory pages one vehicle's sessions
func (s *RESTServer) HandleVehicleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	page, err := s.svc.Reports.VehicleHistory(r.Context(), id, rng, parsePage(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

// HandleListVehicles lists vehicles; tenant admins see only their own
func (s *RESTServer) HandleListVehicles(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	s.respondList(w, r, func() (interface{}, error) {
		if c.IsTenantAdmin() {
			if !c.HasTenant() {
				return []*models.Vehicle{}, nil
			}
			return s.svc.Vehicles.ListByTenant(r.Context(), *c.TenantID)
		}
		return s.svc.Vehicles.ListAll(r.Context())
	})
}

// HandleListVehiclesInside lists vehicles waiting at or inside the gate
func (s *RESTServer) HandleListVehiclesInside(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Vehicles.ListInside(r.Context()) })
}

// HandleListVehiclesCheckedOut lists vehicles that have left
func (s *RESTServer) HandleListVehiclesCheckedOut(w http.ResponseWriter, r *http.Request) {
	s.respondList(w, r, func() (interface{}, error) { return s.svc.Vehicles.ListCheckedOut(r.Context()) })
}

// HandleFindVehicleByNumber returns the open record for a plate, 404 when the
// vehicle is not on the premises
func (s *RESTServer) HandleFindVehicleByNumber(w http.ResponseWriter, r *http.Request) {
	vehicle, err := s.svc.Vehicles.FindOpenByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if vehicle == nil {
		s.respondError(w, http.StatusNotFound, "vehicle is not on the premises")
		return
	}
	s.respondJSON(w, http.StatusOK, vehicle)
}
