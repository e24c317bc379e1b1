package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

func (s *Store) CreateStaff(_ context.Context, staff *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if staff.IsOpen() && s.openStaffLocked(staff.MobileNumber, staff.ID) != nil {
		return storage.ErrDuplicateKey
	}
	s.stamp(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	s.staff[staff.ID] = staff.Clone()
	return nil
}

func (s *Store) GetStaff(_ context.Context, id uuid.UUID) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *Store) UpdateStaff(_ context.Context, staff *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.staff[staff.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if staff.IsOpen() && s.openStaffLocked(staff.MobileNumber, staff.ID) != nil {
		return storage.ErrDuplicateKey
	}
	staff.CreatedAt = cur.CreatedAt
	staff.UpdatedAt = s.now()
	s.staff[staff.ID] = staff.Clone()
	return nil
}

func (s *Store) DeleteStaff(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.staff[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.staff, id)
	return nil
}

func (s *Store) FindOpenStaffByMobile(_ context.Context, mobile string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.openStaffLocked(mobile, uuid.Nil)
	if st == nil {
		return nil, storage.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *Store) openStaffLocked(mobile string, except uuid.UUID) *models.Staff {
	for id, st := range s.staff {
		if id != except && st.MobileNumber == mobile && st.IsOpen() {
			return st
		}
	}
	return nil
}

func (s *Store) ListStaff(_ context.Context) ([]*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Staff, 0, len(s.staff))
	for _, st := range s.staff {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ========== Staff history ==========

func (s *Store) CreateStaffHistory(_ context.Context, entry *models.StaffHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	s.staffHistory[entry.ID] = entry.Clone()
	return nil
}

func (s *Store) UpdateStaffHistory(_ context.Context, entry *models.StaffHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.staffHistory[entry.ID]
	if !ok {
		return storage.ErrNotFound
	}
	entry.CreatedAt = cur.CreatedAt
	entry.UpdatedAt = s.now()
	s.staffHistory[entry.ID] = entry.Clone()
	return nil
}

func (s *Store) FindOpenStaffHistory(_ context.Context, staffID uuid.UUID) (*models.StaffHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.StaffHistory
	for _, h := range s.staffHistory {
		if h.StaffID == staffID && h.CheckOutTime == nil && (newest == nil || h.CreatedAt.After(newest.CreatedAt)) {
			newest = h
		}
	}
	if newest == nil {
		return nil, storage.ErrNotFound
	}
	return newest.Clone(), nil
}

func (s *Store) ListStaffHistoryPage(_ context.Context, filter storage.HistoryFilter, limit, offset int) ([]*models.StaffHistory, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*models.StaffHistory
	for _, h := range s.staffHistory {
		if filter.SubjectID != nil && h.StaffID != *filter.SubjectID {
			continue
		}
		if !storage.StatusIn(h.Status, filter.Statuses) {
			continue
		}
		if h.CheckInTime == nil || h.CheckInTime.Before(filter.Start) || h.CheckInTime.After(filter.End) {
			continue
		}
		all = append(all, h.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CheckInTime.After(*all[j].CheckInTime) })
	return window(all, limit, offset), int64(len(all)), nil
}
