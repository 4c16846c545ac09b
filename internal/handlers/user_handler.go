package handlers

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/config"
	"github.com/selimdoruk/account-backend/internal/dto"
	"github.com/selimdoruk/account-backend/internal/middleware"
	"github.com/selimdoruk/account-backend/internal/services"
)

type UserHandler struct {
	accounts *services.AccountService
	cfg      *config.Config
}

func NewUserHandler(accounts *services.AccountService, cfg *config.Config) *UserHandler {
	return &UserHandler{accounts: accounts, cfg: cfg}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	picture, err := h.saveImage(c)
	if err != nil {
		slog.Error("profile image upload failed", "error", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to store profile image")
	}
	req.ProfilePicture = picture

	user, err := h.accounts.Register(c.Context(), &req)
	if err != nil {
		return h.serviceError(c, err)
	}

	return respond(c, fiber.StatusCreated,
		"Registration successful. Please verify your email with the OTP we sent.",
		dto.NewUserResponse(user, middleware.Timezone(c)))
}

func (h *UserHandler) ResendOtp(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := h.accounts.ResendOtp(c.Context(), req.Email); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "A new OTP has been sent to your email", nil)
}

func (h *UserHandler) VerifyOtp(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	tok, user, err := h.accounts.VerifyOtp(c.Context(), req.Email, req.OTP, c.Get("fcm-token"))
	if err != nil {
		return h.serviceError(c, err)
	}

	return respond(c, fiber.StatusOK, "Email verified successfully", dto.AuthResponse{
		Token: tok,
		User:  dto.NewUserResponse(user, middleware.Timezone(c)),
	})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	tok, user, err := h.accounts.Login(c.Context(), req.Email, req.Password, c.Get("fcm-token"))
	if err != nil {
		return h.serviceError(c, err)
	}

	return respond(c, fiber.StatusOK, "Logged in successfully", dto.AuthResponse{
		Token: tok,
		User:  dto.NewUserResponse(user, middleware.Timezone(c)),
	})
}

func (h *UserHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := h.accounts.ForgotPassword(c.Context(), req.Email); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "A password reset OTP has been sent to your email", nil)
}

func (h *UserHandler) VerifyForgotPasswordOtp(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := h.accounts.VerifyForgotPasswordOtp(c.Context(), req.Email, req.OTP); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "OTP verified. You may now reset your password", nil)
}

func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := h.accounts.ResetPassword(c.Context(), req.UserID, req.Password); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "Password reset successfully", nil)
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return respondErr(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return respond(c, fiber.StatusOK, "Profile fetched successfully",
		dto.NewUserResponse(user, middleware.Timezone(c)))
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return respondErr(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	picture, err := h.saveImage(c)
	if err != nil {
		slog.Error("profile image upload failed", "error", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to store profile image")
	}

	updated, err := h.accounts.UpdateProfile(c.Context(), user.ID, &req, picture)
	if err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile updated successfully",
		dto.NewUserResponse(updated, middleware.Timezone(c)))
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return respondErr(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondErr(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := h.accounts.ChangePassword(c.Context(), user.ID, req.Password); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "Password changed successfully", nil)
}

func (h *UserHandler) Logout(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return respondErr(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.accounts.Logout(c.Context(), user.ID); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return respondErr(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.accounts.DeleteAccount(c.Context(), user.ID); err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "Account deleted successfully", nil)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	list, err := h.accounts.ListUsers(c.Context(), page, perPage)
	if err != nil {
		return h.serviceError(c, err)
	}
	return respond(c, fiber.StatusOK, "Users fetched successfully", list)
}

// saveImage stores an optional multipart "image" field and returns its
// public path. A missing field is not an error.
func (h *UserHandler) saveImage(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("image")
	if err != nil || file == nil {
		return "", nil
	}

	name := uuid.New().String() + filepath.Ext(file.Filename)
	if err := c.SaveFile(file, filepath.Join(h.cfg.UploadDir, name)); err != nil {
		return "", err
	}
	return "/" + h.cfg.UploadDir + "/" + name, nil
}

// serviceError translates service sentinels into envelope responses.
// Anything unexpected is logged and surfaced as a bare 500.
func (h *UserHandler) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		return respondErr(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return respondErr(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidOTP),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, services.ErrOTPNotVerified):
		return respondErr(c, fiber.StatusBadRequest, err.Error())
	default:
		slog.Error("account operation failed", "method", c.Method(), "path", c.Path(), "error", err)
		return respondErr(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
