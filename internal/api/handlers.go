package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/report"
)

const dateLayout = "2006-01-02"

// requireRole lets only the given roles through. It runs after authMiddleware.
func (s *RESTServer) requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := identity.FromContext(r.Context())
			if !ok {
				s.respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.respondError(w, http.StatusForbidden, "role "+string(caller.Role)+" may not access this resource")
		})
	}
}

// caller returns the identity placed on the request by authMiddleware.
func caller(r *http.Request) identity.Identity {
	id, _ := identity.FromContext(r.Context())
	return id
}

// HandleHealth reports liveness
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot describes the service
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": s.config.Server.Name,
		"version": s.config.Server.Version,
		"health":  "/api/v1/health",
	})
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErr maps a service error onto an HTTP status.
func (s *RESTServer) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	body := map[string]string{"error": err.Error()}
	if st, ok := apperr.StatusOf(err); ok {
		body["status"] = string(st)
	}
	s.respondJSON(w, status, body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidState), errors.Is(err, apperr.ErrAlreadyProcessed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and validates it.
func (s *RESTServer) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return s.validator.Validate(v)
}

// transition is a lifecycle step on one subject.
type transition[T any] func(ctx context.Context, id uuid.UUID, caller identity.Identity) (T, error)

// respondList writes the result of a list query.
func (s *RESTServer) respondList(w http.ResponseWriter, r *http.Request, list func() (interface{}, error)) {
	items, err := list()
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

// ========== Helper functions ==========

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperr.Validation("invalid date %q, want YYYY-MM-DD", raw)
	}
	return &t, nil
}

// parseRange reads startDate and endDate query parameters.
func parseRange(r *http.Request) (report.Range, error) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("startDate"))
	if err != nil {
		return report.Range{}, err
	}
	end, err := parseDate(q.Get("endDate"))
	if err != nil {
		return report.Range{}, err
	}
	return report.Range{Start: start, End: end}, nil
}

// parsePage reads page and size query parameters. The reader clamps them.
func parsePage(r *http.Request) report.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		size = 10
	}
	return report.PageRequest{Page: page, Size: size}
}
