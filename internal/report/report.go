// Package report serves dashboards and paged history reports. It only reads.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

const (
	dashboardKey    = "access-register:dashboard"
	maxPageSize     = 100
	defaultLookback = 3
)

// Dashboard holds the headline counters.
type Dashboard struct {
	TotalTenants   int64 `json:"totalTenants"`
	TotalVehicles  int64 `json:"totalVehicles"`
	VisitorsToday  int64 `json:"visitorsToday"`
	VehiclesInside int64 `json:"vehiclesInside"`
}

// Range bounds a report by day. Nil ends fall back to per-report defaults.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// PageRequest selects a page. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
}

// Page is one page of a report.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"totalPages"`
}

func newPage[T any](items []T, total int64, pr PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pr.Size > 0 {
		pages = int((total + int64(pr.Size) - 1) / int64(pr.Size))
	}
	return &Page[T]{Items: items, Total: total, Page: pr.Page, Size: pr.Size, TotalPages: pages}
}

// Reader answers report queries over the history ledger.
type Reader struct {
	store storage.Store
	cache Cache
	cfg   config.ReportConfig
	now   func() time.Time
}

// NewReader creates a reader. cache may be nil to always count live.
func NewReader(store storage.Store, cache Cache, cfg config.ReportConfig) *Reader {
	if cfg.VisitorLookbackMonths <= 0 {
		cfg.VisitorLookbackMonths = defaultLookback
	}
	if cfg.MaxPageSize <= 0 || cfg.MaxPageSize > maxPageSize {
		cfg.MaxPageSize = maxPageSize
	}
	return &Reader{
		store: store,
		cache: cache,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Clamp normalizes a page request: page >= 0, size within [1, max], and
// page*size never beyond math.MaxInt32.
func (r *Reader) Clamp(pr PageRequest) PageRequest {
	if pr.Page < 0 {
		pr.Page = 0
	}
	if pr.Size < 1 {
		pr.Size = 1
	}
	if pr.Size > r.cfg.MaxPageSize {
		pr.Size = r.cfg.MaxPageSize
	}
	if last := math.MaxInt32 / pr.Size; pr.Page > last {
		pr.Page = last
	}
	return pr
}

// Dashboard returns the headline counters, from cache when fresh.
func (r *Reader) Dashboard(ctx context.Context) (*Dashboard, error) {
	if r.cache != nil {
		raw, err := r.cache.Get(ctx, dashboardKey)
		switch {
		case err == nil:
			var d Dashboard
			if jerr := json.Unmarshal(raw, &d); jerr == nil {
				return &d, nil
			}
			log.Warn().Msg("discarding malformed cached dashboard")
		case !errors.Is(err, ErrCacheMiss):
			log.Warn().Err(err).Msg("dashboard cache read failed")
		}
	}

	d, err := r.countDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && r.cfg.DashboardCacheTTL > 0 {
		raw, _ := json.Marshal(d)
		if err := r.cache.Set(ctx, dashboardKey, raw, r.cfg.DashboardCacheTTL); err != nil {
			log.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}
	return d, nil
}

func (r *Reader) countDashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.TotalTenants, err = r.store.CountTenants(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if d.TotalVehicles, err = r.store.CountVehicles(ctx, storage.VehicleFilter{}); err != nil {
		return nil, apperr.Internal(err)
	}
	today := models.DateOnly(r.now())
	if d.VisitorsToday, err = r.store.CountVisitors(ctx, storage.VisitorFilter{
		VisitDate: &today,
		Statuses:  []models.Status{models.StatusCheckedIn, models.StatusCheckedOut},
	}); err != nil {
		return nil, apperr.Internal(err)
	}
	if d.VehiclesInside, err = r.store.CountVehicles(ctx, storage.VehicleFilter{
		Statuses: []models.Status{models.StatusCheckedIn},
	}); err != nil {
		return nil, apperr.Internal(err)
	}
	return &d, nil
}

// visitorWindow defaults to the configured lookback ending today.
func (r *Reader) visitorWindow(rng Range) (time.Time, time.Time, error) {
	today := models.DateOnly(r.now())
	start := today.AddDate(0, -r.cfg.VisitorLookbackMonths, 0)
	end := today
	if rng.Start != nil {
		start = models.DateOnly(*rng.Start)
	}
	if rng.End != nil {
		end = models.DateOnly(*rng.End)
	}
	if start.After(end) {
		return start, end, apperr.Validation("start date must not be after end date")
	}
	return start, end, nil
}

// eventWindow defaults to the epoch through now. An explicit end covers the
// whole day.
func (r *Reader) eventWindow(rng Range) (time.Time, time.Time, error) {
	start := time.Unix(0, 0).UTC()
	end := r.now()
	if rng.Start != nil {
		start = models.DateOnly(*rng.Start)
	}
	if rng.End != nil {
		end = models.DateOnly(*rng.End).Add(24*time.Hour - time.Nanosecond)
	}
	if start.After(end) {
		return start, end, apperr.Validation("start date must not be after end date")
	}
	return start, end, nil
}

// VisitorReport pages visitors who entered, newest visit date first.
func (r *Reader) VisitorReport(ctx context.Context, rng Range, tenantID *uuid.UUID, pr PageRequest) (*Page[*models.VisitorHistory], error) {
	start, end, err := r.visitorWindow(rng)
	if err != nil {
		return nil, err
	}
	pr = r.Clamp(pr)
	items, total, err := r.store.ListVisitorHistoryPage(ctx, storage.HistoryFilter{
		TenantID: tenantID,
		Statuses: []models.Status{models.StatusCheckedIn, models.StatusCheckedOut},
		Start:    start,
		End:      end,
	}, pr.Size, pr.Page*pr.Size)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return newPage(items, total, pr), nil
}

// VehicleReport pages vehicle sessions, newest entry first.
func (r *Reader) VehicleReport(ctx context.Context, rng Range, tenantID *uuid.UUID, pr PageRequest) (*Page[*models.VehicleHistory], error) {
	return r.vehicleHistory(ctx, storage.HistoryFilter{TenantID: tenantID}, rng, pr)
}

// VehicleHistory pages one vehicle's sessions, newest entry first.
func (r *Reader) VehicleHistory(ctx context.Context, vehicleID uuid.UUID, rng Range, pr PageRequest) (*Page[*models.VehicleHistory], error) {
	return r.vehicleHistory(ctx, storage.HistoryFilter{SubjectID: &vehicleID}, rng, pr)
}

func (r *Reader) vehicleHistory(ctx context.Context, filter storage.HistoryFilter, rng Range, pr PageRequest) (*Page[*models.VehicleHistory], error) {
	start, end, err := r.eventWindow(rng)
	if err != nil {
		return nil, err
	}
	pr = r.Clamp(pr)
	filter.Start, filter.End = start, end
	items, total, err := r.store.ListVehicleHistoryPage(ctx, filter, pr.Size, pr.Page*pr.Size)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return newPage(items, total, pr), nil
}

// StaffReport pages staff shifts, newest entry first.
func (r *Reader) StaffReport(ctx context.Context, rng Range, pr PageRequest) (*Page[*models.StaffHistory], error) {
	start, end, err := r.eventWindow(rng)
	if err != nil {
		return nil, err
	}
	pr = r.Clamp(pr)
	items, total, err := r.store.ListStaffHistoryPage(ctx, storage.HistoryFilter{Start: start, End: end}, pr.Size, pr.Page*pr.Size)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return newPage(items, total, pr), nil
}
