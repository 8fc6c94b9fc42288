package customer

import (
	"regexp"
	"time"

	"github.com/custdash/backend/internal/domain/shared"
)

// Customer represents a customer record. It is the aggregate root for all
// customer-related operations. NationalID and InternalNotes are sensitive
// fields: they are only visible and writable through the internal visibility
// mode (see visibility.go).
type Customer struct {
	shared.BaseEntity
	FullName      string
	Email         string
	PhoneNumber   string
	NationalID    *string
	InternalNotes *string
	DeletedAt     *time.Time
}

// NewCustomer creates a new customer with required fields
func NewCustomer(fullName, email, phoneNumber string) (*Customer, error) {
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}

	return &Customer{
		BaseEntity:  shared.NewBaseEntity(),
		FullName:    fullName,
		Email:       email,
		PhoneNumber: phoneNumber,
	}, nil
}

// SetFullName updates the customer's full name
func (c *Customer) SetFullName(fullName string) error {
	if err := validateFullName(fullName); err != nil {
		return err
	}
	c.FullName = fullName
	c.UpdatedAt = time.Now()
	return nil
}

// SetEmail updates the customer's email
func (c *Customer) SetEmail(email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	c.Email = email
	c.UpdatedAt = time.Now()
	return nil
}

// SetPhoneNumber updates the customer's phone number
func (c *Customer) SetPhoneNumber(phoneNumber string) error {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return err
	}
	c.PhoneNumber = phoneNumber
	c.UpdatedAt = time.Now()
	return nil
}

// SetNationalID updates the customer's national id. Callers are responsible
// for enforcing visibility: public-mode writes must be sanitized before this
// point.
func (c *Customer) SetNationalID(nationalID *string) error {
	if nationalID != nil && len(*nationalID) > 100 {
		return shared.NewDomainError("INVALID_NATIONAL_ID", "National id cannot exceed 100 characters")
	}
	c.NationalID = nationalID
	c.UpdatedAt = time.Now()
	return nil
}

// SetInternalNotes updates the customer's internal notes
func (c *Customer) SetInternalNotes(notes *string) {
	c.InternalNotes = notes
	c.UpdatedAt = time.Now()
}

// IsDeleted returns true if the customer has been soft-deleted
func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Validation functions

var (
	fullNameRegex = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
)

func validateFullName(fullName string) error {
	if fullName == "" {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot be empty")
	}
	if len(fullName) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot exceed 255 characters")
	}
	if !fullNameRegex.MatchString(fullName) {
		return shared.NewDomainError("INVALID_NAME", "Full name can only contain letters, spaces, hyphens, and apostrophes")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 255 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 255 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePhoneNumber(phone string) error {
	if phone == "" {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot be empty")
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !phoneRegex.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}
