package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

func (s *Store) CreateVehicle(_ context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle.IsOpen() && s.openVehicleLocked(vehicle.VehicleNumber, vehicle.ID) != nil {
		return storage.ErrDuplicateKey
	}
	s.stamp(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	s.vehicles[vehicle.ID] = vehicle.Clone()
	return nil
}

func (s *Store) GetVehicle(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *Store) UpdateVehicle(_ context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.vehicles[vehicle.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if vehicle.IsOpen() && s.openVehicleLocked(vehicle.VehicleNumber, vehicle.ID) != nil {
		return storage.ErrDuplicateKey
	}
	vehicle.CreatedAt = cur.CreatedAt
	vehicle.UpdatedAt = s.now()
	s.vehicles[vehicle.ID] = vehicle.Clone()
	return nil
}

func (s *Store) DeleteVehicle(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.vehicles, id)
	return nil
}

func (s *Store) FindOpenVehicleByNumber(_ context.Context, number string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.openVehicleLocked(number, uuid.Nil)
	if v == nil {
		return nil, storage.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *Store) openVehicleLocked(number string, except uuid.UUID) *models.Vehicle {
	for id, v := range s.vehicles {
		if id != except && strings.EqualFold(v.VehicleNumber, number) && v.IsOpen() {
			return v
		}
	}
	return nil
}

func (s *Store) ListVehicles(_ context.Context, filter storage.VehicleFilter) ([]*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Vehicle
	for _, v := range s.vehicles {
		if matchVehicle(v, filter) {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CountVehicles(_ context.Context, filter storage.VehicleFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, v := range s.vehicles {
		if matchVehicle(v, filter) {
			n++
		}
	}
	return n, nil
}

func matchVehicle(v *models.Vehicle, f storage.VehicleFilter) bool {
	if f.TenantID != nil && (v.TenantID == nil || *v.TenantID != *f.TenantID) {
		return false
	}
	return storage.StatusIn(v.Status, f.Statuses)
}

// ========== Vehicle history ==========

func (s *Store) CreateVehicleHistory(_ context.Context, entry *models.VehicleHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	s.vehicleHistory[entry.ID] = entry.Clone()
	return nil
}

func (s *Store) UpdateVehicleHistory(_ context.Context, entry *models.VehicleHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.vehicleHistory[entry.ID]
	if !ok {
		return storage.ErrNotFound
	}
	entry.CreatedAt = cur.CreatedAt
	entry.UpdatedAt = s.now()
	s.vehicleHistory[entry.ID] = entry.Clone()
	return nil
}

func (s *Store) FindOpenVehicleHistory(_ context.Context, vehicleID uuid.UUID) (*models.VehicleHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.VehicleHistory
	for _, h := range s.vehicleHistory {
		if h.VehicleID == vehicleID && h.CheckOutTime == nil && (newest == nil || h.CreatedAt.After(newest.CreatedAt)) {
			newest = h
		}
	}
	if newest == nil {
		return nil, storage.ErrNotFound
	}
	return newest.Clone(), nil
}

func (s *Store) ListVehicleHistoryPage(_ context.Context, filter storage.HistoryFilter, limit, offset int) ([]*models.VehicleHistory, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*models.VehicleHistory
	for _, h := range s.vehicleHistory {
		if filter.SubjectID != nil && h.VehicleID != *filter.SubjectID {
			continue
		}
		if filter.TenantID != nil && (h.TenantID == nil || *h.TenantID != *filter.TenantID) {
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
