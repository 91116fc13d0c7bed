package service

import (
	"context"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/internal/store"
	"devfolio/portfolio-api/pkg/validators"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ForgotMessage is shown whether or not the email belongs to an account
const ForgotMessage = "If an account with that email exists, a password reset link has been sent to it."

type PasswordReset struct {
	Users  *store.UserStore
	Mailer Mailer
	// Reset links point at <DashboardURL>/password/reset/<token>
	DashboardURL string
}

func NewPasswordReset(users *store.UserStore, mailer Mailer, dashboardURL string) *PasswordReset {
	return &PasswordReset{
		Users:        users,
		Mailer:       mailer,
		DashboardURL: strings.TrimSuffix(dashboardURL, "/"),
	}
}

// Forgot mails a reset link to the owner of email. Unknown emails are
// silently ignored. If the mail can't be sent the token is cleared again.
func (r *PasswordReset) Forgot(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperror.Validation("Email is required!")
	}

	u, err := r.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			zap.L().Debug("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	raw, err := r.Users.IssueResetToken(ctx, u.ID)
	if err != nil {
		return err
	}

	err = r.Mailer.Send(ctx, Mail{
		To:      u.Email,
		Subject: "Password Recovery",
		Body:    fmt.Sprintf("Your reset password link is:\n\n %s\n\nIf you did not request this, please ignore it.", r.ResetURL(raw)),
	})
	if err != nil {
		if clearErr := r.Users.ClearResetToken(context.WithoutCancel(ctx), u.ID); clearErr != nil {
			zap.L().Error("Failed to clear reset token after failed mail", zap.String("userID", u.ID), zap.Error(clearErr))
		}

		return apperror.Dependency("Failed to send password reset email", err)
	}

	zap.L().Info("Password reset email sent", zap.String("userID", u.ID))
	return nil
}

// ResetURL is the dashboard link a user follows to redeem raw
func (r *PasswordReset) ResetURL(raw string) string {
	return r.DashboardURL + "/password/reset/" + raw
}

// Reset redeems raw and sets password as the user's new password. The token
// is checked before anything else so an invalid token always produces the
// same error.
func (r *PasswordReset) Reset(ctx context.Context, raw, password, confirm string) (*model.User, error) {
	if _, err := r.Users.FindByResetToken(ctx, raw); err != nil {
		return nil, err
	}

	if password != confirm {
		return nil, apperror.Validation("Password & Confirm password do not match!")
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, invalid(err)
	}

	u, err := r.Users.ConsumeResetToken(ctx, raw, password)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Password reset", zap.String("userID", u.ID))
	return u, nil
}
