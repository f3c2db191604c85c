package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/example/otpauth/internal/models"
)

// LookupQuery matches a user on any of the non-empty fields.
type LookupQuery struct {
	Username string
	Email    string
	Phone    string
}

func (q LookupQuery) empty() bool {
	return q.Username == "" && q.Email == "" && q.Phone == ""
}

// UserRepository is the credential store.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Lookup returns the first user (lowest id) matching any field of q.
func (r *UserRepository) Lookup(ctx context.Context, q LookupQuery) (*models.User, error) {
	if q.empty() {
		return nil, ErrNotFound
	}

	var clauses []string
	var args []interface{}
	for _, f := range []struct{ column, value string }{
		{"username", q.Username},
		{"email", q.Email},
		{"phone", q.Phone},
	} {
		if f.value == "" {
			continue
		}
		clauses = append(clauses, f.column+" = ?")
		args = append(args, f.value)
	}

	var user models.User
	if err := r.db.WithContext(ctx).Where(strings.Join(clauses, " OR "), args...).Order("id asc").First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID loads a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail loads a user by exact email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "email", email)
}

// FindByPhone loads a user by exact phone number.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findBy(ctx, "phone", phone)
}

func (r *UserRepository) findBy(ctx context.Context, column, value string) (*models.User, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	var user models.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create inserts a new user. Unique violations come back as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// MarkVerified flips is_verified on.
func (r *UserRepository) MarkVerified(ctx context.Context, id uint) error {
	return r.update(ctx, id, "is_verified", true)
}

// UpdatePassword overwrites the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *UserRepository) update(ctx context.Context, id uint, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
