package employee

import "time"

const dateLayout = "2006-01-02"

type CreateEmployeeRequest struct {
	FullName    string `json:"fullName" validate:"required,min=4,max=160"`
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	PhoneNumber string `json:"phoneNumber" validate:"required,len=10,digits"`
	Active      bool   `json:"active"`
	Password    string `json:"password" validate:"required,min=6"`
}

// UpdateEmployeeRequest has one pointer per field: nil means "not supplied".
// Email is not updatable and is therefore absent.
type UpdateEmployeeRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,min=4,max=160"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,len=10,digits"`
	Active      *bool   `json:"active"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
}

// CreateEmployeeInput is a CreateEmployeeRequest that passed validation.
type CreateEmployeeInput struct {
	FullName    string
	Email       string
	DateOfBirth time.Time
	Gender      Gender
	PhoneNumber string
	Active      bool
	Password    string
}

// UpdateEmployeeInput is an UpdateEmployeeRequest that passed validation.
type UpdateEmployeeInput struct {
	FullName    *string
	DateOfBirth *time.Time
	Gender      *Gender
	PhoneNumber *string
	Active      *bool
	Password    *string
}

type EmployeeResponse struct {
	ID          int64      `json:"id"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	DateOfBirth string     `json:"dateOfBirth"`
	Gender      Gender     `json:"gender"`
	GenderLabel string     `json:"genderLabel"`
	PhoneNumber string     `json:"phoneNumber"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}
