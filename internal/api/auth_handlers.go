package api

import (
	"errors"
	"net/http"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/auth"
)

// HandleLogin handles user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}

	pair, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondAuthErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, pair)
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}

	pair, err := s.svc.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.respondAuthErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, pair)
}

// respondAuthErr answers failed logins with 401 rather than 403.
func (s *RESTServer) respondAuthErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrUnauthorized) || errors.Is(err, apperr.ErrNotFound) {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.respondErr(w, r, err)
}

// HandleSaveFCMToken stores the caller's push token
func (s *RESTServer) HandleSaveFCMToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.svc.Auth.SaveFCMToken(r.Context(), caller(r), req.Token); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the resolved caller
func (s *RESTServer) HandleMe(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       c.SubjectID,
		"role":     c.Role,
		"tenantId": c.TenantID,
	})
}

// HandleListSecurityUsers lists gate security accounts
func (s *RESTServer) HandleListSecurityUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Auth.ListSecurityUsers(r.Context(), caller(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, users)
}

// HandleCreateSecurityUser registers a gate security account
func (s *RESTServer) HandleCreateSecurityUser(w http.ResponseWriter, r *http.Request) {
	var req auth.NewAccount
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	user, err := s.svc.Auth.CreateSecurityUser(r.Context(), caller(r), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, user)
}
