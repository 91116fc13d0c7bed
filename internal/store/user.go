// Package store persists user records and owns every write to their
// credential fields
package store

import (
	"context"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/pkg/security"
	"devfolio/portfolio-api/pkg/util"
	"devfolio/portfolio-api/pkg/validators"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultResetTTL is how long a password reset token can be redeemed for
const DefaultResetTTL = 15 * time.Minute

// ErrResetTokenInvalid is returned for reset tokens that never existed,
// expired, were already used or were replaced by a newer one. Callers can't
// tell these cases apart on purpose.
var ErrResetTokenInvalid = apperror.Validation("Reset password token is invalid or expired")

type UserStore struct {
	db       *gorm.DB
	hasher   *security.Hasher
	resetTTL time.Duration
	now      func() time.Time
}

func NewUserStore(db *gorm.DB, hasher *security.Hasher, resetTTL time.Duration) *UserStore {
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}

	return &UserStore{
		db:       db,
		hasher:   hasher,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// ProfileUpdate holds the profile fields to change. Empty strings and nil
// assets are left untouched.
type ProfileUpdate struct {
	FullName     string
	Email        string
	Phone        string
	AboutMe      string
	PortfolioURL string
	GithubURL    string
	InstagramURL string
	TwitterURL   string
	LinkedInURL  string
	FacebookURL  string
	Avatar       *model.Asset
	Resume       *model.Asset
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&u).
		Error

	return found(&u, err)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", validators.NormalizeEmail(email)).
		Take(&u).
		Error

	return found(&u, err)
}

// First returns the oldest registered user
func (s *UserStore) First(ctx context.Context) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Order("created_at asc").
		Take(&u).
		Error

	return found(&u, err)
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", validators.NormalizeEmail(email)).
		Count(&n).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to check if email is registered, %w", err)
	}

	return n > 0, nil
}

// Create stores u with a fresh ID and the hash of password. The unique
// index on email settles concurrent registrations, the loser gets
// DuplicateEmail and nothing is written for it.
func (s *UserStore) Create(ctx context.Context, u *model.User, password string) error {
	u.Email = validators.NormalizeEmail(u.Email)

	exists, err := s.EmailExists(ctx, u.Email)
	if err != nil {
		return err
	}

	if exists {
		return apperror.DuplicateEmail()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	id, err := util.NewID()
	if err != nil {
		return fmt.Errorf("failed to generate user ID, %w", err)
	}

	u.ID = id
	u.PasswordHash = hash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.DuplicateEmail()
		}

		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}

// SetPassword replaces the user's password with the hash of password
func (s *UserStore) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperror.NotFound("User not found")
	}

	return nil
}

// UpdateProfile writes the non-empty fields of p and returns the updated user
func (s *UserStore) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (*model.User, error) {
	fields := map[string]any{}

	set := func(col, val string) {
		if val != "" {
			fields[col] = val
		}
	}

	set("full_name", p.FullName)
	set("email", validators.NormalizeEmail(p.Email))
	set("phone", p.Phone)
	set("about_me", p.AboutMe)
	set("portfolio_url", p.PortfolioURL)
	set("github_url", p.GithubURL)
	set("instagram_url", p.InstagramURL)
	set("twitter_url", p.TwitterURL)
	set("linked_in_url", p.LinkedInURL)
	set("facebook_url", p.FacebookURL)

	if p.Avatar != nil {
		fields["avatar_public_id"] = p.Avatar.PublicID
		fields["avatar_url"] = p.Avatar.URL
	}

	if p.Resume != nil {
		fields["resume_public_id"] = p.Resume.PublicID
		fields["resume_url"] = p.Resume.URL
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", userID).
			Updates(fields)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, apperror.DuplicateEmail()
			}

			return nil, fmt.Errorf("failed to update profile, %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return nil, apperror.NotFound("User not found")
		}
	}

	return s.FindByID(ctx, userID)
}

// IssueResetToken stores the hash of a new reset token and its expiry on the
// user and returns the raw token. A token issued earlier stops working.
func (s *UserStore) IssueResetToken(ctx context.Context, userID string) (string, error) {
	raw, hash, err := security.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token, %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_token_hash":   hash,
			"reset_token_expiry": s.now().UTC().Add(s.resetTTL),
		})
	if res.Error != nil {
		return "", fmt.Errorf("failed to store reset token, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return "", apperror.NotFound("User not found")
	}

	return raw, nil
}

// ClearResetToken removes any outstanding reset token from the user
func (s *UserStore) ClearResetToken(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_token_hash":   nil,
			"reset_token_expiry": nil,
		}).
		Error
	if err != nil {
		return fmt.Errorf("failed to clear reset token, %w", err)
	}

	return nil
}

// FindByResetToken returns the user holding the unexpired token raw
func (s *UserStore) FindByResetToken(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, ErrResetTokenInvalid
	}

	var u model.User

	err := s.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expiry > ?", security.HashResetToken(raw), s.now().UTC()).
		Take(&u).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResetTokenInvalid
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up reset token, %w", err)
	}

	return &u, nil
}

// ConsumeResetToken sets a new password for the holder of raw and clears the
// token in the same write. The write only happens while the token is still
// the user's current one and hasn't expired.
func (s *UserStore) ConsumeResetToken(ctx context.Context, raw, password string) (*model.User, error) {
	u, err := s.FindByResetToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND reset_token_hash = ? AND reset_token_expiry > ?", u.ID, security.HashResetToken(raw), s.now().UTC()).
		Updates(map[string]any{
			"password_hash":      hash,
			"reset_token_hash":   nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reset password, %w", res.Error)
	}

	// Someone issued a new token or redeemed this one in between
	if res.RowsAffected == 0 {
		return nil, ErrResetTokenInvalid
	}

	u.PasswordHash = hash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil

	return u, nil
}

// ClearExpiredResetTokens drops every reset token whose expiry has passed
// and returns how many users were touched
func (s *UserStore) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("reset_token_expiry <= ?", s.now().UTC()).
		Updates(map[string]any{
			"reset_token_hash":   nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens, %w", res.Error)
	}

	return res.RowsAffected, nil
}

// VerifyPassword reports whether password matches the user's stored hash
func (s *UserStore) VerifyPassword(u *model.User, password string) bool {
	return s.hasher.Verify(password, u.PasswordHash)
}

func found(u *model.User, err error) (*model.User, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user, %w", err)
	}

	return u, nil
}
