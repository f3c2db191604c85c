package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/otpauth/internal/config"
	"github.com/example/otpauth/internal/models"
	"github.com/example/otpauth/internal/repository"
	"github.com/example/otpauth/internal/utils"
)

// UserStore is the credential store the engine reads and writes.
type UserStore interface {
	Lookup(ctx context.Context, q repository.LookupQuery) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	MarkVerified(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

// OTPLedger is the append-only history of issued codes.
type OTPLedger interface {
	Create(ctx context.Context, otp *models.OTP) error
	Latest(ctx context.Context, userID uint) (*models.OTP, error)
}

// IdentityService drives registration, verification, login and password reset.
type IdentityService struct {
	users    UserStore
	otps     OTPLedger
	notifier Notifier
	cfg      *config.Config
	log      *zap.Logger
	digits   DigitSource
	now      func() time.Time
}

// Option customises an IdentityService.
type Option func(*IdentityService)

// WithDigitSource replaces the crypto/rand digit source.
func WithDigitSource(src DigitSource) Option {
	return func(s *IdentityService) { s.digits = src }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *IdentityService) { s.now = now }
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(users UserStore, otps OTPLedger, notifier Notifier, cfg *config.Config, log *zap.Logger, opts ...Option) *IdentityService {
	s := &IdentityService{
		users:    users,
		otps:     otps,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		digits:   CryptoDigits,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// ContactRef locates an identity by email, falling back to phone.
type ContactRef struct {
	Email string
	Phone string
}

// DeliveryReport lists the channels that accepted a code.
type DeliveryReport struct {
	Delivered []Channel
	// SMSDisabled is set when a phone was on file but SMS delivery is switched off.
	SMSDisabled bool
}

// Register creates an unverified identity and sends it its first code.
// The identity and code stay persisted even when delivery fails.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*DeliveryReport, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if in.Email == "" && in.Phone == "" {
		return nil, ErrContactRequired
	}
	if in.Username == "" {
		return nil, ErrUsernameRequired
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	if in.Email != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, ErrInvalidEmail.wrap(err)
		}
		in.Email = email
	}
	if err := checkLengths(in); err != nil {
		return nil, err
	}

	_, err := s.users.Lookup(ctx, repository.LookupQuery{Username: in.Username, Email: in.Email, Phone: in.Phone})
	switch {
	case err == nil:
		return nil, ErrUserExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("register: lookup user: %w", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        models.OptionalString(in.Email),
		Phone:        models.OptionalString(in.Phone),
		PasswordHash: hash,
		IsVerified:   false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}
	s.log.Info("identity registered", zap.Uint("identity_id", user.ID))

	code, err := s.issueOTP(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	report := s.deliver(ctx, user, code)
	if len(report.Delivered) == 0 {
		// A phone-only identity with SMS switched off has nothing to attempt.
		if report.SMSDisabled && user.Email == nil {
			return report, nil
		}
		return nil, ErrDeliveryFailed
	}
	return report, nil
}

// VerifyOTP marks the identity verified when code matches its latest OTP.
func (s *IdentityService) VerifyOTP(ctx context.Context, ref ContactRef, code string) error {
	user, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.checkOTP(ctx, user.ID, code); err != nil {
		return err
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("verify otp: mark verified: %w", err)
	}
	s.log.Info("identity verified", zap.Uint("identity_id", user.ID))
	return nil
}

// Login checks the password of a verified identity and issues an access token.
// identifier may be a username, email or phone.
func (s *IdentityService) Login(ctx context.Context, identifier, password string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := s.users.Lookup(ctx, repository.LookupQuery{
		Username: identifier,
		Email:    strings.ToLower(identifier),
		Phone:    identifier,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("login: lookup user: %w", err)
	}
	if !user.IsVerified {
		return "", ErrNotVerified
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, s.cfg.JWTAlgorithm, user.ID, s.cfg.TokenExpires())
	if err != nil {
		return "", fmt.Errorf("login: issue token: %w", err)
	}
	s.log.Info("identity logged in", zap.Uint("identity_id", user.ID))
	return token, nil
}

// ForgotPassword issues a fresh code and sends it to every contact on file,
// not only the one used for the lookup.
func (s *IdentityService) ForgotPassword(ctx context.Context, ref ContactRef) (*DeliveryReport, error) {
	user, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	code, err := s.issueOTP(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}

	report := s.deliver(ctx, user, code)
	if len(report.Delivered) == 0 {
		return nil, ErrDeliveryFailed
	}
	return report, nil
}

// ResetPassword replaces the password once code matches the latest OTP.
func (s *IdentityService) ResetPassword(ctx context.Context, ref ContactRef, code, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}

	user, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.checkOTP(ctx, user.ID, code); err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("reset password: update: %w", err)
	}
	s.log.Info("password reset", zap.Uint("identity_id", user.ID))
	return nil
}

// Profile loads the identity behind an access token.
func (s *IdentityService) Profile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

func (s *IdentityService) resolve(ctx context.Context, ref ContactRef) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(ref.Email))
	phone := strings.TrimSpace(ref.Phone)

	var (
		user *models.User
		err  error
	)
	switch {
	case email != "":
		user, err = s.users.FindByEmail(ctx, email)
	case phone != "":
		user, err = s.users.FindByPhone(ctx, phone)
	default:
		return nil, ErrContactRequired
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// Column widths of the users table.
const (
	maxUsernameLen = 50
	maxEmailLen    = 100
	maxPhoneLen    = 15
)

// normalizeEmail reduces input such as "Name <Addr@Host>" to its bare,
// lower-cased mailbox.
func normalizeEmail(raw string) (string, error) {
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(parsed.Address), nil
}

func checkLengths(in RegisterInput) error {
	switch {
	case utf8.RuneCountInString(in.Username) > maxUsernameLen:
		return ErrUsernameTooLong
	case utf8.RuneCountInString(in.Email) > maxEmailLen:
		return ErrEmailTooLong
	case utf8.RuneCountInString(in.Phone) > maxPhoneLen:
		return ErrPhoneTooLong
	}
	return nil
}

func (s *IdentityService) issueOTP(ctx context.Context, userID uint) (string, error) {
	record := &models.OTP{
		UserID:    userID,
		Code:      GenerateOTP(s.digits),
		CreatedAt: s.now(),
	}
	if err := s.otps.Create(ctx, record); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return record.Code, nil
}

// checkOTP collapses "no code issued", "expired" and "wrong code" into ErrInvalidOTP.
func (s *IdentityService) checkOTP(ctx context.Context, userID uint, code string) error {
	latest, err := s.otps.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("load otp: %w", err)
	}
	if latest.IsExpired(s.now(), s.cfg.OTPTTL()) {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
		return ErrInvalidOTP
	}
	return nil
}

func (s *IdentityService) deliver(ctx context.Context, user *models.User, code string) *DeliveryReport {
	report := &DeliveryReport{}

	if phone := user.PhoneNumber(); phone != "" {
		if !s.cfg.SMSEnabled {
			report.SMSDisabled = true
		} else if err := s.notifier.DeliverOTP(ctx, ChannelSMS, phone, code); err == nil {
			report.Delivered = append(report.Delivered, ChannelSMS)
		}
	}
	if email := user.EmailAddress(); email != "" {
		if err := s.notifier.DeliverOTP(ctx, ChannelEmail, email, code); err == nil {
			report.Delivered = append(report.Delivered, ChannelEmail)
		}
	}

	if len(report.Delivered) == 0 {
		s.log.Warn("otp not delivered on any channel",
			zap.Uint("identity_id", user.ID),
			zap.Bool("sms_disabled", report.SMSDisabled))
	}
	return report
}
