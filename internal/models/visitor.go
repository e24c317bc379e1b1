package models

import (
	"time"

	"github.com/google/uuid"
)

// Visitor is the live record of a guest visiting a tenant
type Visitor struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	VisitorName  string    `json:"visitorName" db:"visitor_name"`
	MobileNumber string    `json:"mobileNumber" db:"mobile_number"`
	VisitType    string    `json:"visitType,omitempty" db:"visit_type"`
	IDProof      string    `json:"idProof,omitempty" db:"id_proof"`
	ImageURL     string    `json:"imageUrl,omitempty" db:"image_url"`
	VisitDate    time.Time `json:"visitDate" db:"visit_date"`

	Status   Status     `json:"status" db:"status"`
	TenantID *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`

	CreatedBy  *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`
	ApprovedBy *uuid.UUID `json:"approvedBy,omitempty" db:"approved_by"`

	// AssignedAdmins lists the tenant admins allowed to decide. Empty means any
	// admin of the tenant.
	AssignedAdmins []uuid.UUID `json:"assignedAdmins"`

	RejectionRemarks string `json:"rejectionRemarks,omitempty" db:"rejection_remarks"`

	CheckInTime  *time.Time `json:"checkInTime,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`
}

// IsOpen reports whether the visitor is on the premises.
func (v *Visitor) IsOpen() bool {
	return v.Status == StatusCheckedIn && v.CheckOutTime == nil
}

// IsAssigned reports whether adminID is in the assignment set.
func (v *Visitor) IsAssigned(adminID uuid.UUID) bool {
	for _, id := range v.AssignedAdmins {
		if id == adminID {
			return true
		}
	}
	return false
}

// BelongsTo reports whether the visitor is scoped to tenantID.
func (v *Visitor) BelongsTo(tenantID *uuid.UUID) bool {
	return v.TenantID != nil && tenantID != nil && *v.TenantID == *tenantID
}

// Clone returns a deep copy.
func (v *Visitor) Clone() *Visitor {
	c := *v
	c.TenantID = CopyID(v.TenantID)
	c.CreatedBy = CopyID(v.CreatedBy)
	c.ApprovedBy = CopyID(v.ApprovedBy)
	c.CheckInTime = CopyTime(v.CheckInTime)
	c.CheckOutTime = CopyTime(v.CheckOutTime)
	if v.AssignedAdmins != nil {
		c.AssignedAdmins = append([]uuid.UUID(nil), v.AssignedAdmins...)
	}
	return &c
}

// VisitorHistory is the per-session ledger row for a visitor. It is written
// once when the session opens and updated in place when it closes.
type VisitorHistory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	VisitorID uuid.UUID `json:"visitorId" db:"visitor_id"`

	VisitorName  string    `json:"visitorName" db:"visitor_name"`
	MobileNumber string    `json:"mobileNumber" db:"mobile_number"`
	VisitType    string    `json:"visitType,omitempty" db:"visit_type"`
	IDProof      string    `json:"idProof,omitempty" db:"id_proof"`
	ImageURL     string    `json:"imageUrl,omitempty" db:"image_url"`
	VisitDate    time.Time `json:"visitDate" db:"visit_date"`

	Status   Status     `json:"status" db:"status"`
	TenantID *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`

	CreatedBy        *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`
	ApprovedBy       *uuid.UUID `json:"approvedBy,omitempty" db:"approved_by"`
	RejectionRemarks string     `json:"rejectionRemarks,omitempty" db:"rejection_remarks"`

	CheckInTime  *time.Time `json:"checkInTime,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty" db:"check_out_time"`
}

// NewVisitorHistory snapshots the visitor's identity fields.
func NewVisitorHistory(v *Visitor) *VisitorHistory {
	return &VisitorHistory{
		VisitorID:        v.ID,
		VisitorName:      v.VisitorName,
		MobileNumber:     v.MobileNumber,
		VisitType:        v.VisitType,
		IDProof:          v.IDProof,
		ImageURL:         v.ImageURL,
		VisitDate:        v.VisitDate,
		Status:           v.Status,
		TenantID:         CopyID(v.TenantID),
		CreatedBy:        CopyID(v.CreatedBy),
		ApprovedBy:       CopyID(v.ApprovedBy),
		RejectionRemarks: v.RejectionRemarks,
		CheckInTime:      CopyTime(v.CheckInTime),
	}
}

// Clone returns a deep copy.
func (h *VisitorHistory) Clone() *VisitorHistory {
	c := *h
	c.TenantID = CopyID(h.TenantID)
	c.CreatedBy = CopyID(h.CreatedBy)
	c.ApprovedBy = CopyID(h.ApprovedBy)
	c.CheckInTime = CopyTime(h.CheckInTime)
	c.CheckOutTime = CopyTime(h.CheckOutTime)
	return &c
}
