package models

import "time"

// OTP is one issued passcode. Rows are append-only; only the newest row for a
// user is ever compared against.
type OTP struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// IsExpired reports whether the code is older than ttl. A zero ttl never expires.
func (o *OTP) IsExpired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(o.CreatedAt.Add(ttl))
}
