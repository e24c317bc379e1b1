package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff is a building employee (housekeeping, maintenance, ...) who checks in
// and out daily
type Staff struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	EmployeeCode string `json:"employeeCode,omitempty" db:"employee_code"`
	Name         string `json:"name" db:"name"`
	MobileNumber string `json:"mobileNumber" db:"mobile_number"`
	Address      string `json:"address,omitempty" db:"address"`
	IDProof      string `json:"idProof,omitempty" db:"id_proof"`

	Status    Status     `json:"status" db:"status"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`

	CheckInTime  *time.Time `json:"checkInTime,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`
}

// IsOpen reports whether the staff record holds an unclosed session.
func (s *Staff) IsOpen() bool {
	return s.CheckOutTime == nil
}

// Clone returns a deep copy.
func (s *Staff) Clone() *Staff {
	c := *s
	c.CreatedBy = CopyID(s.CreatedBy)
	c.CheckInTime = CopyTime(s.CheckInTime)
	c.CheckOutTime = CopyTime(s.CheckOutTime)
	return &c
}

// StaffHistory is the per-session ledger row for a staff member
type StaffHistory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	StaffID uuid.UUID `json:"staffId" db:"staff_id"`

	EmployeeCode string `json:"employeeCode,omitempty" db:"employee_code"`
	Name         string `json:"name" db:"name"`
	MobileNumber string `json:"mobileNumber" db:"mobile_number"`
	Address      string `json:"address,omitempty" db:"address"`
	IDProof      string `json:"idProof,omitempty" db:"id_proof"`

	Status    Status     `json:"status" db:"status"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`

	CheckInTime  *time.Time `json:"checkInTime,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`
}

// NewStaffHistory snapshots the staff member's identity fields.
func NewStaffHistory(s *Staff) *StaffHistory {
	return &StaffHistory{
		StaffID:      s.ID,
		EmployeeCode: s.EmployeeCode,
		Name:         s.Name,
		MobileNumber: s.MobileNumber,
		Address:      s.Address,
		IDProof:      s.IDProof,
		Status:       s.Status,
		CreatedBy:    CopyID(s.CreatedBy),
		CheckInTime:  CopyTime(s.CheckInTime),
	}
}

// Clone returns a deep copy.
func (h *StaffHistory) Clone() *StaffHistory {
	c := *h
	c.CreatedBy = CopyID(h.CreatedBy)
	c.CheckInTime = CopyTime(h.CheckInTime)
	c.CheckOutTime = CopyTime(h.CheckOutTime)
	return &c
}
