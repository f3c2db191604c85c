package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/otpauth/internal/middleware"
	"github.com/example/otpauth/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	identity *services.IdentityService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	RePassword string `json:"repassword"`
}

// Register creates a new account and sends its verification code.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.identity.Register(c.UserContext(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.RePassword,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{"msg": registerMessage(report)})
}

func registerMessage(report *services.DeliveryReport) string {
	switch {
	case report.SMSDisabled && len(report.Delivered) == 0:
		return "Registered, but mobile OTP service is disabled. Please use email"
	case report.SMSDisabled:
		return "Registered successfully, OTP sent by email. Mobile OTP service is disabled"
	default:
		return "Registered successfully, OTP sent"
	}
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// VerifyOTP marks an account verified.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ref := services.ContactRef{Email: req.Email, Phone: req.Phone}
	if err := h.identity.VerifyOTP(c.UserContext(), ref, req.OTP); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{"msg": "Account verified successfully"})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login authenticates a verified account by username, email or phone.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.identity.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{"access_token": token})
}

// Me returns the account behind the bearer token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.identity.Profile(c.UserContext(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"phone":       user.Phone,
		"is_verified": user.IsVerified,
	})
}
