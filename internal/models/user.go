package models

// User is a registered identity. Email and Phone are nullable so the unique
// indexes only apply to values that are actually on file.
type User struct {
	BaseModel
	Username     string  `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        *string `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	Phone        *string `gorm:"size:15;uniqueIndex" json:"phone,omitempty"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	IsVerified   bool    `gorm:"not null;default:false" json:"is_verified"`
	OTPs         []OTP   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// EmailAddress returns the email on file or "".
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// PhoneNumber returns the phone on file or "".
func (u *User) PhoneNumber() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// OptionalString maps "" to nil for nullable unique columns.
func OptionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
