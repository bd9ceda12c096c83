package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoService "github.com/allisson/identity/internal/crypto/service"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/notification"
	userDomain "github.com/allisson/identity/internal/user/domain"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

const (
	// resetTokenDigits is the length of the numeric forgot-password token.
	// The token is single-use and time-boxed, so six digits suffice.
	resetTokenDigits = 6

	// resetTokenTTL bounds how long a pending reset token stays valid.
	resetTokenTTL = 24 * time.Hour
)

// Notification templates for the password flows.
const (
	templateForgotPassword = "forgot_password"
	templateResetPassword  = "reset_password"
)

// lifecycle implements Lifecycle.
type lifecycle struct {
	userRepo       userUsecase.UserRepository
	hasher         cryptoService.Hasher
	messenger      notification.Messenger
	passwordPolicy appValidation.PasswordStrength
	logger         *slog.Logger
}

// NewLifecycle creates the password lifecycle with the provided dependencies.
func NewLifecycle(
	userRepo userUsecase.UserRepository,
	hasher cryptoService.Hasher,
	messenger notification.Messenger,
	passwordPolicy appValidation.PasswordStrength,
	logger *slog.Logger,
) Lifecycle {
	return &lifecycle{
		userRepo:       userRepo,
		hasher:         hasher,
		messenger:      messenger,
		passwordPolicy: passwordPolicy,
		logger:         logger,
	}
}

// validatePassword checks a candidate password against the configured policy.
func (l *lifecycle) validatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required.Error("password is required"),
		l.passwordPolicy,
	)
	return appValidation.WrapValidationError(err)
}

// ResetPassword replaces the user's credential and optionally notifies the
// user. The notification runs after the credential is committed; its failure
// is logged, never propagated.
func (l *lifecycle) ResetPassword(
	ctx context.Context,
	userID uuid.UUID,
	newPassword string,
	channel Channel,
) error {
	if err := l.validatePassword(newPassword); err != nil {
		return err
	}

	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	credential, err := l.hasher.SaltAndHash(newPassword)
	if err != nil {
		return err
	}

	if err := l.userRepo.UpdateCredential(ctx, user.ID, credential); err != nil {
		return err
	}

	if channel != ChannelNone {
		l.notify(ctx, user, channel, notification.Message{
			Template: templateResetPassword,
			Data: map[string]any{
				"username": user.Username,
			},
		})
	}
	return nil
}

// ChangePassword verifies the old password and replaces the credential.
func (l *lifecycle) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	oldPassword, newPassword string,
) error {
	if strings.EqualFold(oldPassword, newPassword) {
		return userDomain.ErrPasswordsIdentical
	}
	if err := l.validatePassword(newPassword); err != nil {
		return err
	}

	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return userDomain.ErrUserNotFound
	}

	ok, err := l.hasher.Verify(oldPassword, user.Credential)
	if err != nil {
		return err
	}
	if !ok {
		return userDomain.ErrPasswordMismatch
	}

	credential, err := l.hasher.SaltAndHash(newPassword)
	if err != nil {
		return err
	}

	return l.userRepo.UpdateCredential(ctx, user.ID, credential)
}

// ForgotPassword issues a reset token and notifies the account owner. The
// token reaches the user only through the notification collaborator.
func (l *lifecycle) ForgotPassword(ctx context.Context, username string) (bool, error) {
	user, err := l.userRepo.GetByUsername(ctx, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		if apperrors.Is(err, userDomain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if !user.IsActive {
		// A suspended account cannot start a reset; indistinguishable from
		// an unknown one.
		return false, nil
	}

	token, err := cryptoService.NumericCode(resetTokenDigits)
	if err != nil {
		return false, err
	}
	expiry := time.Now().UTC().Add(resetTokenTTL)

	if err := l.userRepo.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return false, err
	}

	l.notify(ctx, user, ChannelEmail, notification.Message{
		Template: templateForgotPassword,
		Data: map[string]any{
			"username":    user.Username,
			"reset_token": token,
		},
	})
	return true, nil
}

// ResetPasswordByToken consumes a pending reset token and replaces the
// credential. Matching and clearing the token happens in one conditional
// update, so concurrent consumers race for a single winner.
func (l *lifecycle) ResetPasswordByToken(
	ctx context.Context,
	token, newPassword string,
) (*userDomain.User, error) {
	if err := l.validatePassword(newPassword); err != nil {
		return nil, err
	}

	credential, err := l.hasher.SaltAndHash(newPassword)
	if err != nil {
		return nil, err
	}

	user, err := l.userRepo.ConsumeResetToken(ctx, token, credential, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	l.notify(ctx, user, ChannelEmail, notification.Message{
		Template: templateResetPassword,
		Data: map[string]any{
			"username": user.Username,
		},
	})
	return user, nil
}

// IsResetTokenValid reports whether a reset token is pending and unexpired.
func (l *lifecycle) IsResetTokenValid(ctx context.Context, token string) (bool, error) {
	_, err := l.userRepo.GetByResetToken(ctx, token, time.Now().UTC())
	if err != nil {
		if apperrors.Is(err, userDomain.ErrResetTokenInvalid) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// notify routes msg to the user's contact for the channel and logs failures.
func (l *lifecycle) notify(
	ctx context.Context,
	user *userDomain.User,
	channel Channel,
	msg notification.Message,
) {
	switch channel {
	case ChannelPhone:
		msg.To = user.Phone
	default:
		msg.To = user.Email
	}
	if msg.To == "" {
		l.logger.WarnContext(ctx, "no contact for password notification",
			slog.String("username", user.Username),
			slog.String("channel", string(channel)),
			slog.String("template", msg.Template),
		)
		return
	}

	if err := l.messenger.Send(ctx, msg); err != nil {
		l.logger.ErrorContext(ctx, "failed to send password notification",
			slog.String("username", user.Username),
			slog.String("template", msg.Template),
			slog.Any("error", err),
		)
	}
}
