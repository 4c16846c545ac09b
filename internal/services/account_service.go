package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/dto"
	"github.com/selimdoruk/account-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidEmail       = errors.New("no account registered with this email")
	ErrOTPNotVerified     = errors.New("OTP verification is required before resetting the password")
)

// TokenIssuer mints the signed session token stored on the user row.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role models.Role) (string, error)
}

// PasswordHasher is the one-way hash used for stored credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	DummyCompare(plain string)
}

// OTPGenerator produces the numeric codes mailed during verification flows.
type OTPGenerator interface {
	Generate() (string, error)
}

// Mailer delivers lifecycle emails. Send failures are logged, never fatal.
type Mailer interface {
	SendVerificationOTP(ctx context.Context, email, code string) error
	SendPasswordResetOTP(ctx context.Context, email, code string) error
}

// ListCache holds paginated admin listings; dropped on any user mutation.
type ListCache interface {
	GetUserPage(ctx context.Context, page, perPage int, dest interface{}) (bool, error)
	SetUserPage(ctx context.Context, page, perPage int, v interface{}) error
	DropUserPages(ctx context.Context) error
}

// Notifier pushes realtime messages to a user's open connections.
type Notifier interface {
	Send(userID uuid.UUID, title, body string)
}

// AccountService drives the account lifecycle: registration, OTP
// verification, login, password reset, logout and soft deletion.
type AccountService struct {
	db       *gorm.DB
	tokens   TokenIssuer
	hasher   PasswordHasher
	otps     OTPGenerator
	mailer   Mailer
	cache    ListCache
	notifier Notifier
}

func NewAccountService(
	db *gorm.DB,
	tokens TokenIssuer,
	hasher PasswordHasher,
	otps OTPGenerator,
	mailer Mailer,
	cache ListCache,
	notifier Notifier,
) *AccountService {
	return &AccountService{
		db:       db,
		tokens:   tokens,
		hasher:   hasher,
		otps:     otps,
		mailer:   mailer,
		cache:    cache,
		notifier: notifier,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) findByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an unverified account and mails its verification code.
// No session token is issued; the first token is minted by VerifyOtp.
func (s *AccountService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.findByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	code, err := s.otps.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification OTP: %w", err)
	}

	user := models.User{
		ID:                   uuid.New(),
		Email:                email,
		PasswordHash:         hash,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		PhoneCode:            req.PhoneCode,
		PhoneNumber:          req.PhoneNumber,
		ProfilePicture:       req.ProfilePicture,
		EmailVerificationOTP: &code,
		Role:                 models.RoleUser,
		Status:               models.StatusActive,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.dispatchMail(user.Email, code, s.mailerVerification)
	s.invalidateListPages()

	return &user, nil
}

// ResendOtp regenerates the email-verification code for an unverified account.
func (s *AccountService) ResendOtp(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	code, err := s.otps.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification OTP: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("email_verification_otp", code).Error; err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	s.dispatchMail(user.Email, code, s.mailerVerification)
	s.invalidateListPages()
	return nil
}

// VerifyOtp consumes the email-verification code. On success the account is
// marked verified and its first session token is issued and stored.
func (s *AccountService) VerifyOtp(ctx context.Context, email, code, fcmToken string) (string, *models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	if user.EmailVerificationOTP == nil || *user.EmailVerificationOTP != code {
		return "", nil, ErrInvalidOTP
	}

	tok, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	updates := map[string]interface{}{
		"auth_token":             tok,
		"email_verification_otp": nil,
		"is_email_verified":      true,
	}
	if fcmToken != "" {
		updates["fcm_token"] = fcmToken
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return "", nil, fmt.Errorf("failed to persist verification: %w", err)
	}

	user.AuthToken = tok
	user.EmailVerificationOTP = nil
	user.IsEmailVerified = true

	if s.notifier != nil {
		go s.notifier.Send(user.ID, "Welcome", "Your email has been verified.")
	}
	s.invalidateListPages()

	return tok, user, nil
}

// Login authenticates a user and rotates the stored session token, which
// invalidates any previously issued token. Unknown email and wrong password
// are indistinguishable to the caller, and a dummy hash compare keeps their
// latency identical.
func (s *AccountService) Login(ctx context.Context, email, passwd, fcmToken string) (string, *models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.DummyCompare(passwd)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.hasher.Verify(passwd, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	updates := map[string]interface{}{"auth_token": tok}
	if fcmToken != "" {
		updates["fcm_token"] = fcmToken
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return "", nil, fmt.Errorf("failed to store session token: %w", err)
	}

	user.AuthToken = tok
	s.invalidateListPages()

	return tok, user, nil
}

// ChangePassword replaces the password of an already-authenticated user.
func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.invalidateListPages()
	return nil
}

// ForgotPassword starts the reset flow by mailing a dedicated code. The
// forgot-password OTP is independent of the email-verification one.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidEmail
		}
		return err
	}

	code, err := s.otps.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate reset OTP: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("forgot_password_otp", code).Error; err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	s.dispatchMail(user.Email, code, s.mailerReset)
	s.invalidateListPages()
	return nil
}

// VerifyForgotPasswordOtp consumes the reset code, clearing both OTP fields.
// It does not issue a token; ResetPassword must be called next.
func (s *AccountService) VerifyForgotPasswordOtp(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if user.ForgotPasswordOTP == nil || *user.ForgotPasswordOTP != code {
		return ErrInvalidOTP
	}

	updates := map[string]interface{}{
		"forgot_password_otp":    nil,
		"email_verification_otp": nil,
		"is_email_verified":      true,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to persist OTP verification: %w", err)
	}

	s.invalidateListPages()
	return nil
}

// ResetPassword completes the forgot-password flow. A still-set reset OTP
// means verification was skipped, so the reset is refused.
func (s *AccountService) ResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.ForgotPasswordOTP != nil {
		return ErrOTPNotVerified
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.invalidateListPages()
	return nil
}

// Logout clears the stored session and push tokens, which makes the
// presented token fail the guard's stored-token comparison from now on.
func (s *AccountService) Logout(ctx context.Context, userID uuid.UUID) error {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	updates := map[string]interface{}{
		"auth_token": "",
		"fcm_token":  "",
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.invalidateListPages()
	return nil
}

// DeleteAccount soft-deletes the user. The row stays for audit but is
// excluded from every lookup, so further logins and guarded requests fail.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("status", models.StatusDeleted).Error; err != nil {
		return fmt.Errorf("failed to mark account deleted: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.invalidateListPages()
	return nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile replaces the mutable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest, picture string) (*models.User, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"phone_code":   req.PhoneCode,
		"phone_number": req.PhoneNumber,
	}
	if picture != "" {
		updates["profile_picture"] = picture
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.invalidateListPages()
	return s.findByID(ctx, userID)
}

// ListUsers returns one page of the admin user listing, served from the
// cache when a page is present.
func (s *AccountService) ListUsers(ctx context.Context, page, perPage int) (*dto.UserList, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	if s.cache != nil {
		var cached dto.UserList
		hit, err := s.cache.GetUserPage(ctx, page, perPage, &cached)
		if err != nil {
			slog.Warn("user list cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	list := &dto.UserList{
		Users:   make([]dto.UserResponse, 0, len(users)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	for i := range users {
		list.Users = append(list.Users, dto.NewUserResponse(&users[i], time.UTC))
	}

	if s.cache != nil {
		if err := s.cache.SetUserPage(ctx, page, perPage, list); err != nil {
			slog.Warn("user list cache write failed", "error", err)
		}
	}

	return list, nil
}

type mailFunc func(ctx context.Context, email, code string) error

func (s *AccountService) mailerVerification(ctx context.Context, email, code string) error {
	return s.mailer.SendVerificationOTP(ctx, email, code)
}

func (s *AccountService) mailerReset(ctx context.Context, email, code string) error {
	return s.mailer.SendPasswordResetOTP(ctx, email, code)
}

// dispatchMail sends in the background; a delivery failure is logged and
// never propagated to the operation that triggered it.
func (s *AccountService) dispatchMail(email, code string, send mailFunc) {
	if s.mailer == nil {
		slog.Warn("mailer not configured, skipping email", "email", email)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := send(ctx, email, code); err != nil {
			slog.Error("email dispatch failed", "email", email, "error", err)
		}
	}()
}

// invalidateListPages drops cached admin listings in the background.
func (s *AccountService) invalidateListPages() {
	if s.cache == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.DropUserPages(ctx); err != nil {
			slog.Warn("user list cache invalidation failed", "error", err)
		}
	}()
}
