package models

import (
	"strconv"
	"time"
)

// Company column names
const (
	ColCompanyCode      = "code"
	ColCompanyName      = "name"
	ColAddress          = "address"
	ColAcceptedPosition = "accepted_position"
	ColCapacity         = "capacity"
	ColContactEmail     = "contact_email"
	ColCompanyPhone     = "phone"
)

// CompanyTable describes the companies table.
var CompanyTable = Table{
	Name:     "companies",
	Writable: []string{ColCompanyName, ColAddress, ColAcceptedPosition, ColCapacity, ColContactEmail, ColCompanyPhone},
	Ints:     map[string]bool{ColCapacity: true},
}

// Company defines the host company model based on the 'companies' table
type Company struct {
	ID               int64     `json:"id" db:"id"`
	Code             string    `json:"code" db:"code"`
	Name             string    `json:"name" db:"name"`
	Address          string    `json:"address" db:"address"`
	AcceptedPosition string    `json:"acceptedPosition" db:"accepted_position"` // free text matched against desired positions
	Capacity         int       `json:"capacity" db:"capacity"`
	AssignedCount    int       `json:"assignedCount" db:"assigned_count"` // cache of students naming this company
	ContactEmail     string    `json:"contactEmail" db:"contact_email"`
	Phone            string    `json:"phone" db:"phone"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// Columns renders the writable columns. A zero capacity renders as "" so a
// roster can fill it.
func (c *Company) Columns() Columns {
	capacity := ""
	if c.Capacity > 0 {
		capacity = strconv.Itoa(c.Capacity)
	}
	return Columns{
		ColCompanyName:      c.Name,
		ColAddress:          c.Address,
		ColAcceptedPosition: c.AcceptedPosition,
		ColCapacity:         capacity,
		ColContactEmail:     c.ContactEmail,
		ColCompanyPhone:     c.Phone,
	}
}

// Apply writes column values onto the struct. Unknown columns are ignored.
func (c *Company) Apply(cols Columns) error {
	for col, v := range cols {
		switch col {
		case ColCompanyName:
			c.Name = v
		case ColAddress:
			c.Address = v
		case ColAcceptedPosition:
			c.AcceptedPosition = v
		case ColCapacity:
			n, err := ParseInt(v)
			if err != nil {
				return err
			}
			c.Capacity = n
		case ColContactEmail:
			c.ContactEmail = v
		case ColCompanyPhone:
			c.Phone = v
		}
	}
	return nil
}
