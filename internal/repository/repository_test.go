package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/otpauth/internal/database"
	"github.com/example/otpauth/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, repo *UserRepository, username, email, phone string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        models.OptionalString(email),
		Phone:        models.OptionalString(phone),
		PasswordHash: "hash",
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create(%s) error = %v", username, err)
	}
	return user
}

func TestUserLookup(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	alice := createUser(t, repo, "alice", "alice@x.com", "")
	bob := createUser(t, repo, "bob", "", "+15550001")

	tests := []struct {
		name string
		q    LookupQuery
		want uint
	}{
		{name: "username", q: LookupQuery{Username: "alice"}, want: alice.ID},
		{name: "email", q: LookupQuery{Email: "alice@x.com"}, want: alice.ID},
		{name: "phone", q: LookupQuery{Phone: "+15550001"}, want: bob.ID},
		{name: "any field matches", q: LookupQuery{Username: "nobody", Phone: "+15550001"}, want: bob.ID},
		{name: "lowest id wins", q: LookupQuery{Username: "bob", Email: "alice@x.com"}, want: alice.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Lookup(ctx, tt.q)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.ID != tt.want {
				t.Fatalf("Lookup() id = %d, want %d", got.ID, tt.want)
			}
		})
	}

	if _, err := repo.Lookup(ctx, LookupQuery{Username: "carol"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup(missing) error = %v, want %v", err, ErrNotFound)
	}
	if _, err := repo.Lookup(ctx, LookupQuery{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup(empty) error = %v, want %v", err, ErrNotFound)
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	createUser(t, repo, "alice", "alice@x.com", "+15550001")

	dups := []*models.User{
		{Username: "alice", PasswordHash: "h"},
		{Username: "alice2", Email: models.OptionalString("alice@x.com"), PasswordHash: "h"},
		{Username: "alice3", Phone: models.OptionalString("+15550001"), PasswordHash: "h"},
	}
	for _, u := range dups {
		if err := repo.Create(ctx, u); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("Create(%s) error = %v, want %v", u.Username, err, ErrDuplicate)
		}
	}
}

func TestUserCreateAllowsMissingContacts(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	createUser(t, repo, "a", "a@x.com", "")
	createUser(t, repo, "b", "b@x.com", "")
	createUser(t, repo, "c", "", "+1")
}

func TestUserFindByContact(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	alice := createUser(t, repo, "alice", "alice@x.com", "+15550001")

	got, err := repo.FindByEmail(ctx, "alice@x.com")
	if err != nil || got.ID != alice.ID {
		t.Fatalf("FindByEmail() = %v, %v, want id %d", got, err, alice.ID)
	}
	got, err = repo.FindByPhone(ctx, "+15550001")
	if err != nil || got.ID != alice.ID {
		t.Fatalf("FindByPhone() = %v, %v, want id %d", got, err, alice.ID)
	}
	if _, err := repo.FindByEmail(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByEmail(\"\") error = %v, want %v", err, ErrNotFound)
	}
	if _, err := repo.FindByPhone(ctx, "+19999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByPhone(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestUserUpdates(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	alice := createUser(t, repo, "alice", "alice@x.com", "")

	if err := repo.MarkVerified(ctx, alice.ID); err != nil {
		t.Fatalf("MarkVerified() error = %v", err)
	}
	if err := repo.UpdatePassword(ctx, alice.ID, "newhash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.FindByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !got.IsVerified {
		t.Fatal("IsVerified = false, want true")
	}
	if got.PasswordHash != "newhash" {
		t.Fatalf("PasswordHash = %q, want %q", got.PasswordHash, "newhash")
	}

	if err := repo.MarkVerified(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkVerified(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestOTPLatest(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	otps := NewOTPRepository(db)
	ctx := context.Background()
	alice := createUser(t, users, "alice", "alice@x.com", "")
	bob := createUser(t, users, "bob", "bob@x.com", "")

	if _, err := otps.Latest(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest(no codes) error = %v, want %v", err, ErrNotFound)
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []*models.OTP{
		{UserID: alice.ID, Code: "111111", CreatedAt: base},
		{UserID: alice.ID, Code: "222222", CreatedAt: base.Add(time.Hour)},
		{UserID: bob.ID, Code: "333333", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, r := range records {
		if err := otps.Create(ctx, r); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := otps.Latest(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.Code != "222222" {
		t.Fatalf("Latest().Code = %q, want %q", got.Code, "222222")
	}

	// Same timestamp: the later insert wins.
	if err := otps.Create(ctx, &models.OTP{UserID: alice.ID, Code: "444444", CreatedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err = otps.Latest(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.Code != "444444" {
		t.Fatalf("Latest().Code = %q, want %q", got.Code, "444444")
	}
}
