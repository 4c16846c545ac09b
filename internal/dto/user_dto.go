package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/models"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	PhoneCode   string `json:"phone_code" form:"phone_code"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`

	// ProfilePicture is set by the handler after storing an uploaded image;
	// it is never read from the request body.
	ProfilePicture string `json:"-" form:"-"`
}

func (r *RegisterRequest) Validate() error {
	if !validEmail(r.Email) {
		return errors.New("a valid email is required")
	}
	if len(r.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return validatePhonePair(r.PhoneCode, r.PhoneNumber)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type EmailRequest struct {
	Email string `json:"email"`
}

func (r *EmailRequest) Validate() error {
	if !validEmail(r.Email) {
		return errors.New("a valid email is required")
	}
	return nil
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r *VerifyOTPRequest) Validate() error {
	if !validEmail(r.Email) || r.OTP == "" {
		return errors.New("email and otp are required")
	}
	return nil
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if len(r.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type ResetPasswordRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Password string    `json:"password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return errors.New("user_id is required")
	}
	if len(r.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type UpdateProfileRequest struct {
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	PhoneCode   string `json:"phone_code" form:"phone_code"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
}

func (r *UpdateProfileRequest) Validate() error {
	return validatePhonePair(r.PhoneCode, r.PhoneNumber)
}

type UserResponse struct {
	ID              uuid.UUID     `json:"id"`
	Email           string        `json:"email"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	PhoneCode       string        `json:"phone_code,omitempty"`
	PhoneNumber     string        `json:"phone_number,omitempty"`
	ProfilePicture  string        `json:"profile_picture,omitempty"`
	Role            models.Role   `json:"role"`
	Status          models.Status `json:"status"`
	IsEmailVerified bool          `json:"is_email_verified"`
	CreatedAt       string        `json:"created_at"`
}

// NewUserResponse formats a user for the wire; the password hash, tokens and
// OTP codes are never exposed. Dates are rendered in the requester's zone.
func NewUserResponse(u *models.User, loc *time.Location) UserResponse {
	if loc == nil {
		loc = time.UTC
	}
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		PhoneCode:       u.PhoneCode,
		PhoneNumber:     u.PhoneNumber,
		ProfilePicture:  u.ProfilePicture,
		Role:            u.Role,
		Status:          u.Status,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt.In(loc).Format(time.RFC3339),
	}
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserList struct {
	Users   []UserResponse `json:"users"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}

// validatePhonePair enforces that phone code and number travel together.
func validatePhonePair(code, number string) error {
	if (code == "") != (number == "") {
		return errors.New("phone_code and phone_number must both be provided")
	}
	return nil
}
