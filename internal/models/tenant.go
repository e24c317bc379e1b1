package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a company or office occupying the premises
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	CompanyName string `json:"companyName" db:"company_name"`
	CompanyCode string `json:"companyCode" db:"company_code"`

	FloorNumber  *int   `json:"floorNumber,omitempty" db:"floor_number"`
	OfficeNumber string `json:"officeNumber,omitempty" db:"office_number"`

	Status AccountStatus `json:"status" db:"status"`
}

// TenantWithAdmins is a tenant together with its admin accounts.
type TenantWithAdmins struct {
	Tenant
	Admins []*User `json:"admins"`
}

// Clone returns a deep copy.
func (t *Tenant) Clone() *Tenant {
	c := *t
	if t.FloorNumber != nil {
		f := *t.FloorNumber
		c.FloorNumber = &f
	}
	return &c
}
