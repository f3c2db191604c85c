package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/otpauth/internal/models"
)

// OTPRepository is the append-only OTP ledger.
type OTPRepository struct {
	db *gorm.DB
}

// NewOTPRepository constructs an OTPRepository.
func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create appends a code for a user.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTP) error {
	return translate(r.db.WithContext(ctx).Create(otp).Error)
}

// Latest returns the most recently issued code for userID.
func (r *OTPRepository) Latest(ctx context.Context, userID uint) (*models.OTP, error) {
	var otp models.OTP
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		First(&otp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}
