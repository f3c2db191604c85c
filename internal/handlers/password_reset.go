package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/otpauth/internal/services"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	identity *services.IdentityService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(identity *services.IdentityService) *PasswordResetHandler {
	return &PasswordResetHandler{identity: identity}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ForgotPassword issues a new code to every contact on file.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ref := services.ContactRef{Email: req.Email, Phone: req.Phone}
	if _, err := h.identity.ForgotPassword(c.UserContext(), ref); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{"msg": "OTP sent successfully"})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
	RePassword  string `json:"re_password"`
}

// ResetPassword replaces the password after checking the latest code.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ref := services.ContactRef{Email: req.Email, Phone: req.Phone}
	if err := h.identity.ResetPassword(c.UserContext(), ref, req.OTP, req.NewPassword, req.RePassword); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{"msg": "Password reset successfully"})
}
