package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/notification"
	roleUsecase "github.com/allisson/identity/internal/role/usecase"
	tokenDomain "github.com/allisson/identity/internal/token/domain"
	tokenService "github.com/allisson/identity/internal/token/service"
	userDomain "github.com/allisson/identity/internal/user/domain"
	appValidation "github.com/allisson/identity/internal/validation"
)

// initialPasswordDigits is the length of the generated numeric initial
// password delivered on account creation.
const initialPasswordDigits = 6

// templateCreateUser selects the account creation notification message.
const templateCreateUser = "create_user"

// CreateUserInput contains the input data for user registration.
type CreateUserInput struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// userManager implements Manager.
type userManager struct {
	txManager       database.TxManager
	userRepo        UserRepository
	roleRegistry    roleUsecase.Registry
	hasher          cryptoService.Hasher
	tokenManager    tokenService.Manager
	messenger       notification.Messenger
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewManager creates the user manager with the provided dependencies.
func NewManager(
	txManager database.TxManager,
	userRepo UserRepository,
	roleRegistry roleUsecase.Registry,
	hasher cryptoService.Hasher,
	tokenManager tokenService.Manager,
	messenger notification.Messenger,
	sessionDuration time.Duration,
	logger *slog.Logger,
) Manager {
	return &userManager{
		txManager:       txManager,
		userRepo:        userRepo,
		roleRegistry:    roleRegistry,
		hasher:          hasher,
		tokenManager:    tokenManager,
		messenger:       messenger,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// validateCreateUserInput validates the registration input.
func (m *userManager) validateCreateUserInput(input CreateUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.Username,
			validation.Length(3, 64).Error("username must be between 3 and 64 characters"),
		),
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Length(6, 128).Error("password must be between 6 and 128 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create registers a new user. A caller-supplied password is used as-is;
// otherwise a numeric initial password is generated. The password reaches the
// account owner only through the notification collaborator, which runs after
// the record is committed and whose failure does not roll the account back.
func (m *userManager) Create(ctx context.Context, input CreateUserInput) (*userDomain.User, error) {
	if err := m.validateCreateUserInput(input); err != nil {
		return nil, err
	}

	roles := dedupeSorted(input.Roles)
	if len(roles) > 0 {
		ok, err := m.roleRegistry.IsValidRole(ctx, roles)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, userDomain.ErrInvalidRoles
		}
	}

	password := input.Password
	if password == "" {
		generated, err := cryptoService.NumericCode(initialPasswordDigits)
		if err != nil {
			return nil, err
		}
		password = generated
	}

	credential, err := m.hasher.SaltAndHash(password)
	if err != nil {
		return nil, err
	}

	user := &userDomain.User{
		ID:         uuid.Must(uuid.NewV7()),
		Username:   strings.TrimSpace(strings.ToLower(input.Username)),
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:      strings.TrimSpace(input.Phone),
		Roles:      roles,
		Credential: credential,
		IsActive:   true,
		IsApproved: true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := m.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	msg := notification.Message{
		To:       user.Email,
		Template: templateCreateUser,
		Data: map[string]any{
			"username": user.Username,
			"password": password,
		},
	}
	if err := m.messenger.Send(ctx, msg); err != nil {
		m.logger.ErrorContext(ctx, "failed to send account creation notification",
			slog.String("username", user.Username),
			slog.Any("error", err),
		)
	}

	return user, nil
}

// Authenticate verifies the credentials and mints a session token. All
// failure modes collapse into ErrInvalidCredentials, and a hash is derived
// even for unknown usernames so the miss is not observable through timing.
func (m *userManager) Authenticate(
	ctx context.Context,
	username, password string,
) (*userDomain.User, string, error) {
	user, err := m.userRepo.GetByUsername(ctx, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		if apperrors.Is(err, userDomain.ErrUserNotFound) {
			_, _ = m.hasher.SaltAndHash(password)
			return nil, "", userDomain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := m.hasher.Verify(password, user.Credential)
	if err != nil {
		return nil, "", err
	}
	if !ok || !user.CanAuthenticate() {
		return nil, "", userDomain.ErrInvalidCredentials
	}

	token, err := m.tokenManager.Generate(map[string]any{
		tokenDomain.PayloadUserID: user.ID.String(),
		tokenDomain.PayloadName:   user.Name,
	}, m.sessionDuration)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ValidateToken validates a session token and resolves the account plus its
// aggregated permissions. A token minted for a user who has since been
// suspended or removed fails like any other invalid token.
func (m *userManager) ValidateToken(ctx context.Context, token string) (*AuthInfo, error) {
	validated, err := m.tokenManager.Validate(token)
	if err != nil {
		return nil, err
	}

	rawID, ok := validated.Data[tokenDomain.PayloadUserID].(string)
	if !ok {
		return nil, tokenDomain.ErrTokenInvalid
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, tokenDomain.ErrTokenInvalid
	}

	user, err := m.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, userDomain.ErrUserNotFound) {
			return nil, tokenDomain.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, tokenDomain.ErrTokenInvalid
	}

	permissions, err := m.roleRegistry.CalculatePermissions(ctx, user.Roles...)
	if err != nil {
		return nil, err
	}

	return &AuthInfo{User: user, Permissions: permissions}, nil
}

// AddRoles assigns roles to the user. Every requested role must be currently
// valid: partial validity must not pass an authorization-granting operation.
func (m *userManager) AddRoles(
	ctx context.Context,
	username string,
	roles []string,
) (*userDomain.User, error) {
	ok, err := m.roleRegistry.IsValidRole(ctx, roles)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, userDomain.ErrInvalidRoles
	}

	return m.mutateRoles(ctx, username, func(current mapset.Set[string]) mapset.Set[string] {
		return current.Union(mapset.NewThreadUnsafeSet(roles...))
	})
}

// RemoveRole unassigns one role from the user.
func (m *userManager) RemoveRole(
	ctx context.Context,
	username, role string,
) (*userDomain.User, error) {
	return m.mutateRoles(ctx, username, func(current mapset.Set[string]) mapset.Set[string] {
		return current.Difference(mapset.NewThreadUnsafeSet(role))
	})
}

// mutateRoles applies a set transform to one user's role assignment inside a
// transaction.
func (m *userManager) mutateRoles(
	ctx context.Context,
	username string,
	transform func(mapset.Set[string]) mapset.Set[string],
) (*userDomain.User, error) {
	var updated *userDomain.User

	err := m.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := m.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}

		next := transform(mapset.NewThreadUnsafeSet(user.Roles...)).ToSlice()
		sort.Strings(next)

		updated, err = m.userRepo.UpdateRoles(ctx, user.ID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Suspend deactivates the account.
func (m *userManager) Suspend(ctx context.Context, username string) error {
	return m.setActive(ctx, username, false)
}

// Restore reactivates a suspended account.
func (m *userManager) Restore(ctx context.Context, username string) error {
	return m.setActive(ctx, username, true)
}

func (m *userManager) setActive(ctx context.Context, username string, active bool) error {
	user, err := m.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return m.userRepo.SetActive(ctx, user.ID, active)
}

// Approve marks the account as approved.
func (m *userManager) Approve(ctx context.Context, username string) error {
	user, err := m.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return m.userRepo.SetApproved(ctx, user.ID, true)
}

// Get retrieves a user by username.
func (m *userManager) Get(ctx context.Context, username string) (*userDomain.User, error) {
	return m.userRepo.GetByUsername(ctx, username)
}

// List retrieves users with pagination.
func (m *userManager) List(ctx context.Context, offset, limit int) ([]*userDomain.User, error) {
	return m.userRepo.List(ctx, offset, limit)
}

// dedupeSorted returns values with duplicates removed, sorted.
func dedupeSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := mapset.NewThreadUnsafeSet(values...).ToSlice()
	sort.Strings(out)
	return out
}
