package models

import (
	"gorm.io/gorm"

	"github.com/custdash/backend/internal/domain/customer"
	"github.com/custdash/backend/internal/domain/shared"
)

// CustomerModel is the persistence model for the Customer domain entity.
// Email uniqueness is enforced by a partial unique index (WHERE deleted_at
// IS NULL) created in the migrations, so a soft-deleted customer's email
// can be reused.
type CustomerModel struct {
	BaseModel
	FullName      string         `gorm:"type:varchar(255);not null"`
	Email         string         `gorm:"type:varchar(255);not null;index"`
	PhoneNumber   string         `gorm:"type:varchar(50);not null"`
	NationalID    *string        `gorm:"type:varchar(100)"`
	InternalNotes *string        `gorm:"type:text"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *customer.Customer {
	c := &customer.Customer{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		FullName:      m.FullName,
		Email:         m.Email,
		PhoneNumber:   m.PhoneNumber,
		NationalID:    m.NationalID,
		InternalNotes: m.InternalNotes,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		c.DeletedAt = &t
	}
	return c
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.FullName = c.FullName
	m.Email = c.Email
	m.PhoneNumber = c.PhoneNumber
	m.NationalID = c.NationalID
	m.InternalNotes = c.InternalNotes
	if c.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	}
}

// CustomerModelFromDomain creates a new persistence model from a domain entity
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
