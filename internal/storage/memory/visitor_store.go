package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

func (s *Store) CreateVisitor(_ context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if visitor.IsOpen() && s.openVisitorLocked(visitor.MobileNumber, visitor.ID) != nil {
		return storage.ErrDuplicateKey
	}
	s.stamp(&visitor.ID, &visitor.CreatedAt, &visitor.UpdatedAt)
	s.visitors[visitor.ID] = visitor.Clone()
	return nil
}

func (s *Store) GetVisitor(_ context.Context, id uuid.UUID) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visitors[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *Store) UpdateVisitor(_ context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.visitors[visitor.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if visitor.IsOpen() && s.openVisitorLocked(visitor.MobileNumber, visitor.ID) != nil {
		return storage.ErrDuplicateKey
	}
	visitor.CreatedAt = cur.CreatedAt
	visitor.UpdatedAt = s.now()
	s.visitors[visitor.ID] = visitor.Clone()
	return nil
}

func (s *Store) DeleteVisitor(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visitors[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.visitors, id)
	return nil
}

func (s *Store) FindOpenVisitorByMobile(_ context.Context, mobile string) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.openVisitorLocked(mobile, uuid.Nil)
	if v == nil {
		return nil, storage.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *Store) openVisitorLocked(mobile string, except uuid.UUID) *models.Visitor {
	for id, v := range s.visitors {
		if id != except && v.MobileNumber == mobile && v.IsOpen() {
			return v
		}
	}
	return nil
}

func (s *Store) ListVisitors(_ context.Context, filter storage.VisitorFilter) ([]*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Visitor
	for _, v := range s.visitors {
		if matchVisitor(v, filter) {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CountVisitors(_ context.Context, filter storage.VisitorFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, v := range s.visitors {
		if matchVisitor(v, filter) {
			n++
		}
	}
	return n, nil
}

func matchVisitor(v *models.Visitor, f storage.VisitorFilter) bool {
	if f.TenantID != nil && !v.BelongsTo(f.TenantID) {
		return false
	}
	if !storage.StatusIn(v.Status, f.Statuses) {
		return false
	}
	if f.VisitDate != nil && !models.DateOnly(v.VisitDate).Equal(models.DateOnly(*f.VisitDate)) {
		return false
	}
	if f.AssignedAdmin != nil && !v.IsAssigned(*f.AssignedAdmin) {
		return false
	}
	switch f.Presence {
	case storage.PresenceInside:
		return v.CheckInTime != nil && v.CheckOutTime == nil
	case storage.PresenceLeft:
		return v.CheckOutTime != nil
	}
	return true
}

// ========== Visitor history ==========

func (s *Store) CreateVisitorHistory(_ context.Context, entry *models.VisitorHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	s.visitorHistory[entry.ID] = entry.Clone()
	return nil
}

func (s *Store) UpdateVisitorHistory(_ context.Context, entry *models.VisitorHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.visitorHistory[entry.ID]
	if !ok {
		return storage.ErrNotFound
	}
	entry.CreatedAt = cur.CreatedAt
	entry.UpdatedAt = s.now()
	s.visitorHistory[entry.ID] = entry.Clone()
	return nil
}

func (s *Store) ListVisitorHistory(_ context.Context, visitorID uuid.UUID) ([]*models.VisitorHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VisitorHistory
	for _, h := range s.visitorHistory {
		if h.VisitorID == visitorID {
			out = append(out, h.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindOpenVisitorHistory(ctx context.Context, visitorID uuid.UUID) (*models.VisitorHistory, error) {
	entries, _ := s.ListVisitorHistory(ctx, visitorID)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].CheckOutTime == nil {
			return entries[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListVisitorHistoryPage(_ context.Context, filter storage.HistoryFilter, limit, offset int) ([]*models.VisitorHistory, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*models.VisitorHistory
	for _, h := range s.visitorHistory {
		if filter.SubjectID != nil && h.VisitorID != *filter.SubjectID {
			continue
		}
		if filter.TenantID != nil && (h.TenantID == nil || *h.TenantID != *filter.TenantID) {
			continue
		}
		if !storage.StatusIn(h.Status, filter.Statuses) {
			continue
		}
		d := models.DateOnly(h.VisitDate)
		if d.Before(models.DateOnly(filter.Start)) || d.After(filter.End) {
			continue
		}
		all = append(all, h.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].VisitDate.Equal(all[j].VisitDate) {
			return all[i].VisitDate.After(all[j].VisitDate)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return window(all, limit, offset), int64(len(all)), nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset < 0 || limit < 0 || offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
