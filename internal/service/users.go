package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/auth"
	"sweet_shop/internal/config"
	"sweet_shop/internal/model"
	"sweet_shop/internal/store"
)

// loginFailedMessage is shared by every login failure so callers cannot
// tell an unknown email from a wrong password or a disabled account.
const loginFailedMessage = "Invalid email or password"

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uint, email string, isAdmin bool, ttl time.Duration) (string, error)
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

// UserDirectory owns user records.
type UserDirectory struct {
	db         *gorm.DB
	hasher     PasswordHasher
	tokens     TokenIssuer
	adminEmail string
	log        logrus.FieldLogger

	// dummyHash is verified against when the email is unknown so a failed
	// login costs the same either way.
	dummyHash string
}

func NewUserDirectory(db *gorm.DB, hasher PasswordHasher, tokens TokenIssuer, cfg *config.AppConfig, log logrus.FieldLogger) (*UserDirectory, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &UserDirectory{
		db:         db,
		hasher:     hasher,
		tokens:     tokens,
		adminEmail: cfg.AdminEmail,
		log:        log,
		dummyHash:  dummy,
	}, nil
}

// Register creates an account. The email is checked up front and again by
// the unique index at commit, so concurrent registrations of one address
// leave exactly one row and the losers get a duplicate error.
func (d *UserDirectory) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	dup := apperr.Duplicate("User with email %s already exists", in.Email)

	var existing int64
	if err := d.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if existing > 0 {
		return nil, dup
	}

	hash, err := d.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &model.User{
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hash,
		IsAdmin:        auth.IsAdminEmail(in.Email, d.adminEmail),
		IsActive:       true,
	}
	if err := d.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, storeErr(err, dup, nil)
	}

	d.log.WithFields(logrus.Fields{"user_id": u.ID, "is_admin": u.IsAdmin}).Info("user registered")
	return u, nil
}

func validateRegistration(in RegisterInput) error {
	if strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@") {
		return apperr.Validation("A valid email address is required")
	}
	if strings.TrimSpace(in.FullName) == "" {
		return apperr.Validation("Full name is required")
	}
	if in.Password == "" {
		return apperr.Validation("Password is required")
	}
	if len(in.Password) > auth.MaxPasswordLength {
		return apperr.Validation("Password must be at most %d characters", auth.MaxPasswordLength)
	}
	return nil
}

// Login verifies credentials and issues a token carrying the stored role.
func (d *UserDirectory) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var u model.User
	err := d.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, "", apperr.Internal(err)
		}
		d.hasher.Verify(password, d.dummyHash)
		return nil, "", apperr.Authentication(loginFailedMessage)
	}

	if !d.hasher.Verify(password, u.HashedPassword) || !u.IsActive {
		d.log.WithField("user_id", u.ID).Info("login rejected")
		return nil, "", apperr.Authentication(loginFailedMessage)
	}

	token, err := d.tokens.Issue(u.ID, u.Email, u.IsAdmin, 0)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return &u, token, nil
}

func (d *UserDirectory) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := d.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, storeErr(err, nil, apperr.NotFound("User with ID %d not found", id))
	}
	return &u, nil
}

func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, storeErr(err, nil, apperr.NotFound("User with email %s not found", email))
	}
	return &u, nil
}

// List returns the total number of users and one page ordered by id.
func (d *UserDirectory) List(ctx context.Context, skip, limit int) (int64, []model.User, error) {
	if err := checkPage(skip, limit); err != nil {
		return 0, nil, err
	}
	var total int64
	if err := d.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	users := make([]model.User, 0, limit)
	if err := d.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	return total, users, nil
}

// UpdateRole sets the admin flag. Tokens already issued keep their role
// claim until they expire.
func (d *UserDirectory) UpdateRole(ctx context.Context, id uint, isAdmin bool) (*model.User, error) {
	u, err := d.setFlag(ctx, id, "is_admin", isAdmin)
	if err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{"user_id": id, "is_admin": isAdmin}).Info("user role updated")
	return u, nil
}

// Deactivate disables login for the account. Outstanding tokens are not
// revoked.
func (d *UserDirectory) Deactivate(ctx context.Context, id uint) (*model.User, error) {
	u, err := d.setFlag(ctx, id, "is_active", false)
	if err != nil {
		return nil, err
	}
	d.log.WithField("user_id", id).Info("user deactivated")
	return u, nil
}

func (d *UserDirectory) setFlag(ctx context.Context, id uint, column string, value bool) (*model.User, error) {
	var u model.User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return storeErr(err, nil, apperr.NotFound("User with ID %d not found", id))
		}
		if err := tx.Model(&u).Update(column, value).Error; err != nil {
			return err
		}
		return tx.First(&u, id).Error
	})
	if err != nil {
		return nil, passThrough(err)
	}
	return &u, nil
}
