package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	apperrors "github.com/allisson/identity/internal/errors"
	tokenDomain "github.com/allisson/identity/internal/token/domain"
	tokenService "github.com/allisson/identity/internal/token/service"
	userDomain "github.com/allisson/identity/internal/user/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeHasher derives deterministic hashes without the slow KDF.
type fakeHasher struct {
	hashCalls int
}

func (f *fakeHasher) SaltAndHash(password string) (cryptoDomain.Credential, error) {
	f.hashCalls++
	salt := []byte("test-salt")
	return cryptoDomain.Credential{Hash: derive(password, salt), Salt: salt}, nil
}

func (f *fakeHasher) Hash(password string, salt []byte) (cryptoDomain.Credential, error) {
	return cryptoDomain.Credential{Hash: derive(password, salt), Salt: salt}, nil
}

func (f *fakeHasher) Verify(password string, stored cryptoDomain.Credential) (bool, error) {
	if stored.IsZero() {
		return false, cryptoDomain.ErrInvalidCredential
	}
	return bytes.Equal(stored.Hash, derive(password, stored.Salt)), nil
}

func derive(password string, salt []byte) []byte {
	sum := sha256.Sum256(append([]byte(password), salt...))
	return append(sum[:], salt...)
}

// mockAccessKeyRepository is a mock implementation of AccessKeyRepository for testing.
type mockAccessKeyRepository struct {
	mock.Mock
}

func (m *mockAccessKeyRepository) Create(
	ctx context.Context,
	accessKey *accessKeyDomain.AccessKey,
) error {
	args := m.Called(ctx, accessKey)
	return args.Error(0)
}

func (m *mockAccessKeyRepository) GetActiveByKey(
	ctx context.Context,
	key string,
	now time.Time,
) (*accessKeyDomain.AccessKey, error) {
	args := m.Called(ctx, key, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessKeyDomain.AccessKey), args.Error(1)
}

func (m *mockAccessKeyRepository) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
) ([]*accessKeyDomain.AccessKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accessKeyDomain.AccessKey), args.Error(1)
}

func (m *mockAccessKeyRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// mockUserGetter is a mock implementation of UserGetter for testing.
type mockUserGetter struct {
	mock.Mock
}

func (m *mockUserGetter) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func newTestManager(
	t *testing.T,
	repo AccessKeyRepository,
	users UserGetter,
	hasher *fakeHasher,
) Manager {
	t.Helper()

	tokenManager, err := tokenService.NewManager([]byte(testSecret))
	require.NoError(t, err)

	return NewManager(repo, users, hasher, tokenManager)
}

func activeUser(id uuid.UUID) *userDomain.User {
	return &userDomain.User{
		ID:         id,
		Username:   "jane.doe",
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		IsActive:   true,
		IsApproved: true,
	}
}

func storedKey(t *testing.T, hasher *fakeHasher, userID uuid.UUID, secret string) *accessKeyDomain.AccessKey {
	t.Helper()

	credential, err := hasher.SaltAndHash(secret)
	require.NoError(t, err)

	return &accessKeyDomain.AccessKey{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    userID,
		Name:      "ci-deploy",
		Key:       accessKeyDomain.KeyPrefix + "0123456789ABCDEF0123",
		Secret:    credential,
		Scopes:    []string{"deploy"},
		CreatedAt: time.Now().UTC(),
	}
}

func TestAccessKeyManagerCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues key with prefixed handle and single-use secret", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		userID := uuid.Must(uuid.NewV7())
		hasher := &fakeHasher{}
		manager := newTestManager(t, repo, &mockUserGetter{}, hasher)

		var created *accessKeyDomain.AccessKey
		repo.On("Create", ctx, mock.AnythingOfType("*domain.AccessKey")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*accessKeyDomain.AccessKey)
			}).
			Return(nil)

		output, err := manager.Create(ctx, CreateAccessKeyInput{
			UserID: userID,
			Name:   "  ci-deploy  ",
			Scopes: []string{"deploy", "read"},
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, created, output.AccessKey)
		assert.Equal(t, userID, created.UserID)
		assert.Equal(t, "ci-deploy", created.Name)
		assert.True(t, strings.HasPrefix(created.Key, accessKeyDomain.KeyPrefix))
		assert.Len(t, created.Key, len(accessKeyDomain.KeyPrefix)+20)
		assert.Equal(t, strings.ToUpper(created.Key), created.Key)
		assert.Len(t, output.Secret, 96)
		assert.NotContains(t, string(created.Secret.Hash), output.Secret[:8], "secret must not be stored in the clear")

		ok, err := hasher.Verify(output.Secret, created.Secret)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		manager := newTestManager(t, repo, &mockUserGetter{}, &fakeHasher{})

		_, err := manager.Create(ctx, CreateAccessKeyInput{
			UserID: uuid.Must(uuid.NewV7()),
			Name:   "   ",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		manager := newTestManager(t, repo, &mockUserGetter{}, &fakeHasher{})

		_, err := manager.Create(ctx, CreateAccessKeyInput{Name: "ci-deploy"})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		repo.AssertNotCalled(t, "Create")
	})
}

func TestAccessKeyManagerValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("matching secret", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		hasher := &fakeHasher{}
		userID := uuid.Must(uuid.NewV7())
		accessKey := storedKey(t, hasher, userID, "s3cret")
		manager := newTestManager(t, repo, &mockUserGetter{}, hasher)

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)

		got, ok, err := manager.Validate(ctx, accessKey.Key, "s3cret")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, accessKey, got)
	})

	t.Run("wrong secret", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		hasher := &fakeHasher{}
		accessKey := storedKey(t, hasher, uuid.Must(uuid.NewV7()), "s3cret")
		manager := newTestManager(t, repo, &mockUserGetter{}, hasher)

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)

		got, ok, err := manager.Validate(ctx, accessKey.Key, "wrong")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("unknown key hashes anyway", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		hasher := &fakeHasher{}
		manager := newTestManager(t, repo, &mockUserGetter{}, hasher)

		repo.On("GetActiveByKey", ctx, "IKUNKNOWN", mock.AnythingOfType("time.Time")).
			Return(nil, accessKeyDomain.ErrAccessKeyNotFound)

		got, ok, err := manager.Validate(ctx, "IKUNKNOWN", "s3cret")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, 1, hasher.hashCalls, "a miss must still cost one hash")
	})
}

func TestAccessKeyManagerGetToken(t *testing.T) {
	ctx := context.Background()

	t.Run("mints short-lived token for the owner", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		users := &mockUserGetter{}
		hasher := &fakeHasher{}
		userID := uuid.Must(uuid.NewV7())
		accessKey := storedKey(t, hasher, userID, "s3cret")
		manager := newTestManager(t, repo, users, hasher)

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)
		users.On("GetByID", ctx, userID).Return(activeUser(userID), nil)

		token, err := manager.GetToken(ctx, accessKey.Key, "s3cret", map[string]any{
			"pipeline": "release",
		})
		require.NoError(t, err)

		tokenManager, err := tokenService.NewManager([]byte(testSecret))
		require.NoError(t, err)

		validated, err := tokenManager.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), validated.Data[tokenDomain.PayloadUserID])
		assert.Equal(t, "Jane Doe", validated.Data[tokenDomain.PayloadName])
		assert.Equal(t, "release", validated.Data["pipeline"])
		assert.WithinDuration(t, time.Now().Add(tokenDuration), validated.ExpiresAt, time.Minute)
	})

	t.Run("reserved claims cannot be overridden", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		users := &mockUserGetter{}
		hasher := &fakeHasher{}
		userID := uuid.Must(uuid.NewV7())
		accessKey := storedKey(t, hasher, userID, "s3cret")
		manager := newTestManager(t, repo, users, hasher)

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)
		users.On("GetByID", ctx, userID).Return(activeUser(userID), nil)

		token, err := manager.GetToken(ctx, accessKey.Key, "s3cret", map[string]any{
			tokenDomain.PayloadUserID: "someone-else",
		})
		require.NoError(t, err)

		tokenManager, err := tokenService.NewManager([]byte(testSecret))
		require.NoError(t, err)

		validated, err := tokenManager.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), validated.Data[tokenDomain.PayloadUserID])
	})

	t.Run("wrong secret", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		users := &mockUserGetter{}
		hasher := &fakeHasher{}
		accessKey := storedKey(t, hasher, uuid.Must(uuid.NewV7()), "s3cret")
		manager := newTestManager(t, repo, users, hasher)

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)

		_, err := manager.GetToken(ctx, accessKey.Key, "wrong", nil)

		assert.True(t, apperrors.Is(err, accessKeyDomain.ErrInvalidAccessKey))
		users.AssertNotCalled(t, "GetByID")
	})

	t.Run("unknown key", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		hasher := &fakeHasher{}
		manager := newTestManager(t, repo, &mockUserGetter{}, hasher)

		repo.On("GetActiveByKey", ctx, "IKUNKNOWN", mock.AnythingOfType("time.Time")).
			Return(nil, accessKeyDomain.ErrAccessKeyNotFound)

		_, err := manager.GetToken(ctx, "IKUNKNOWN", "s3cret", nil)

		assert.True(t, apperrors.Is(err, accessKeyDomain.ErrInvalidAccessKey))
	})

	t.Run("suspended owner", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		users := &mockUserGetter{}
		hasher := &fakeHasher{}
		userID := uuid.Must(uuid.NewV7())
		accessKey := storedKey(t, hasher, userID, "s3cret")
		manager := newTestManager(t, repo, users, hasher)

		suspended := activeUser(userID)
		suspended.IsActive = false

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)
		users.On("GetByID", ctx, userID).Return(suspended, nil)

		_, err := manager.GetToken(ctx, accessKey.Key, "s3cret", nil)

		assert.True(t, apperrors.Is(err, accessKeyDomain.ErrInvalidAccessKey))
	})

	t.Run("owner removed after issuance", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		users := &mockUserGetter{}
		hasher := &fakeHasher{}
		userID := uuid.Must(uuid.NewV7())
		accessKey := storedKey(t, hasher, userID, "s3cret")
		manager := newTestManager(t, repo, users, hasher)

		repo.On("GetActiveByKey", ctx, accessKey.Key, mock.AnythingOfType("time.Time")).
			Return(accessKey, nil)
		users.On("GetByID", ctx, userID).Return(nil, userDomain.ErrUserNotFound)

		_, err := manager.GetToken(ctx, accessKey.Key, "s3cret", nil)

		assert.True(t, apperrors.Is(err, accessKeyDomain.ErrInvalidAccessKey))
	})
}

func TestAccessKeyManagerListAndRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		hasher := &fakeHasher{}
		userID := uuid.Must(uuid.NewV7())
		accessKey := storedKey(t, hasher, userID, "s3cret")
		manager := newTestManager(t, repo, &mockUserGetter{}, hasher)

		repo.On("ListByUserID", ctx, userID).
			Return([]*accessKeyDomain.AccessKey{accessKey}, nil)

		accessKeys, err := manager.List(ctx, userID)

		require.NoError(t, err)
		require.Len(t, accessKeys, 1)
		assert.Equal(t, accessKey.Key, accessKeys[0].Key)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		repo := &mockAccessKeyRepository{}
		manager := newTestManager(t, repo, &mockUserGetter{}, &fakeHasher{})

		repo.On("Delete", ctx, "IKUNKNOWN").Return(nil)

		assert.NoError(t, manager.Remove(ctx, "IKUNKNOWN"))
	})
}
