package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles. Unknown roles must
// never be treated as a grant.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusBlocked  Status = "blocked"
	StatusDeleted  Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusBlocked, StatusDeleted:
		return true
	}
	return false
}

// User is the single account entity. Emails are stored lower-cased; uniqueness
// among live rows is enforced by the service (a DB unique index would block
// re-registration after a soft delete).
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"not null;size:255;index" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	FirstName      string    `gorm:"size:100" json:"first_name"`
	LastName       string    `gorm:"size:100" json:"last_name"`
	PhoneCode      string    `gorm:"size:8" json:"phone_code"`
	PhoneNumber    string    `gorm:"size:20" json:"phone_number"`
	ProfilePicture string    `gorm:"size:512" json:"profile_picture"`

	// AuthToken holds the most recently issued session token. Requests
	// bearing any other token are rejected (single active session).
	AuthToken string `gorm:"size:1024" json:"-"`
	FCMToken  string `gorm:"size:512" json:"-"`

	// OTP fields are nil once consumed; a nil OTP always fails verification.
	EmailVerificationOTP *string `gorm:"size:10" json:"-"`
	ForgotPasswordOTP    *string `gorm:"size:10" json:"-"`
	IsEmailVerified      bool    `gorm:"default:false" json:"is_email_verified"`

	Role   Role   `gorm:"size:20;default:'user'" json:"role"`
	Status Status `gorm:"size:20;default:'active'" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
