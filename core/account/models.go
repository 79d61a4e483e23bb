package account

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolpay/core"
)

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

// Account is the canonical identity row shared by every role.
// Role profiles (students, teachers) extend it 1:1 and share its ID.
type Account struct {
	ID             string    `json:"id"`
	TrackingID     string    `json:"trackingId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	ExternalAuthID *string   `json:"externalAuthId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
}

func (a Account) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Account) IsTeacher() bool { return a.Role == RoleTeacher }
func (a Account) IsStudent() bool { return a.Role == RoleStudent }

// Summary is the short form embedded in other entities' projections.
func (a Account) Summary() *Summary {
	return &Summary{
		ID:         a.ID,
		TrackingID: a.TrackingID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
	}
}

type Summary struct {
	ID         string `json:"id"`
	TrackingID string `json:"trackingId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Role           string  `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	ExternalAuthID *string `json:"externalAuthId"`
}

func (na *NewAccount) Clean() {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.ExternalAuthID = core.CleanStringPtr(na.ExternalAuthID)
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Clean()
	return validate.Struct(na)
}

// UpdateAccount holds the account fields a profile update may change. nil fields are left untouched.
type UpdateAccount struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Email          *string `json:"email" validate:"omitempty,email"`
	ExternalAuthID *string `json:"externalAuthId"`
}

func (ua *UpdateAccount) Clean() {
	if ua.Name != nil {
		n := core.CleanString(*ua.Name)
		ua.Name = &n
	}
	if ua.Email != nil {
		e := core.CleanString(*ua.Email, true /* lower */)
		ua.Email = &e
	}
	ua.ExternalAuthID = core.CleanStringPtr(ua.ExternalAuthID)
}

// Apply copies the set fields onto acc.
func (ua UpdateAccount) Apply(acc *Account) {
	if ua.Name != nil {
		acc.Name = *ua.Name
	}
	if ua.Email != nil {
		acc.Email = *ua.Email
	}
	if ua.ExternalAuthID != nil {
		acc.ExternalAuthID = ua.ExternalAuthID
	}
}

// GetFilter selects a single Account; the first non-empty field wins.
type GetFilter struct {
	ID             string
	Email          string
	ExternalAuthID string
}
