package models

import (
	"time"

	"github.com/google/uuid"
)

// VehicleType is the kind of vehicle at the gate
type VehicleType string

const (
	VehicleCar   VehicleType = "CAR"
	VehicleBike  VehicleType = "BIKE"
	VehicleTruck VehicleType = "TRUCK"
	VehicleOther VehicleType = "OTHER"
)

// UserType is who the vehicle belongs to
type UserType string

const (
	UserTypeVisitor UserType = "VISITOR"
	UserTypeStaff   UserType = "STAFF"
	UserTypeTenant  UserType = "TENANT"
	UserTypeVendor  UserType = "VENDOR"
)

// Vehicle is the live record of a vehicle passing the gate
type Vehicle struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	VehicleNumber string      `json:"vehicleNumber" db:"vehicle_number"`
	VehicleType   VehicleType `json:"vehicleType,omitempty" db:"vehicle_type"`
	DriverName    string      `json:"driverName,omitempty" db:"driver_name"`
	Company       string      `json:"company,omitempty" db:"company"`
	Purpose       string      `json:"purpose,omitempty" db:"purpose"`
	UserType      UserType    `json:"userType,omitempty" db:"user_type"`

	// TenantID is nil for security-initiated entries not tied to a tenant.
	TenantID *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`

	Status    Status     `json:"status" db:"status"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`

	CheckInTime  *time.Time `json:"checkInTime,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`
}

// IsOpen reports whether the vehicle's session has not been closed yet.
func (v *Vehicle) IsOpen() bool {
	return v.CheckOutTime == nil
}

// Clone returns a deep copy.
func (v *Vehicle) Clone() *Vehicle {
	c := *v
	c.TenantID = CopyID(v.TenantID)
	c.CreatedBy = CopyID(v.CreatedBy)
	c.CheckInTime = CopyTime(v.CheckInTime)
	c.CheckOutTime = CopyTime(v.CheckOutTime)
	return &c
}

// VehicleHistory is the per-session ledger row for a vehicle
type VehicleHistory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	VehicleID uuid.UUID `json:"vehicleId" db:"vehicle_id"`

	VehicleNumber string      `json:"vehicleNumber" db:"vehicle_number"`
	VehicleType   VehicleType `json:"vehicleType,omitempty" db:"vehicle_type"`
	DriverName    string      `json:"driverName,omitempty" db:"driver_name"`
	Company       string      `json:"company,omitempty" db:"company"`
	Purpose       string      `json:"purpose,omitempty" db:"purpose"`
	UserType      UserType    `json:"userType,omitempty" db:"user_type"`

	TenantID  *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`
	Status    Status     `json:"status" db:"status"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`

	CheckInTime  *time.Time `json:"checkInTime,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`
}

// NewVehicleHistory snapshots the vehicle's identity fields.
func NewVehicleHistory(v *Vehicle) *VehicleHistory {
	return &VehicleHistory{
		VehicleID:     v.ID,
		VehicleNumber: v.VehicleNumber,
		VehicleType:   v.VehicleType,
		DriverName:    v.DriverName,
		Company:       v.Company,
		Purpose:       v.Purpose,
		UserType:      v.UserType,
		TenantID:      CopyID(v.TenantID),
		Status:        v.Status,
		CreatedBy:     CopyID(v.CreatedBy),
		CheckInTime:   CopyTime(v.CheckInTime),
	}
}

// Clone returns a deep copy.
func (h *VehicleHistory) Clone() *VehicleHistory {
	c := *h
	c.TenantID = CopyID(h.TenantID)
	c.CreatedBy = CopyID(h.CreatedBy)
	c.CheckInTime = CopyTime(h.CheckInTime)
	c.CheckOutTime = CopyTime(h.CheckOutTime)
	return &c
}
