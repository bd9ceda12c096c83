package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	accessKeyDomain "github.com/allisson/identity/internal/accesskey/domain"
	accessKeyUsecase "github.com/allisson/identity/internal/accesskey/usecase"
	roleDomain "github.com/allisson/identity/internal/role/domain"
	userDomain "github.com/allisson/identity/internal/user/domain"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

type mockUserManager struct {
	mock.Mock
}

func (m *mockUserManager) Create(ctx context.Context, input userUsecase.CreateUserInput) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserManager) Authenticate(ctx context.Context, username, password string) (*userDomain.User, string, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*userDomain.User), args.String(1), args.Error(2)
}

func (m *mockUserManager) ValidateToken(ctx context.Context, token string) (*userUsecase.AuthInfo, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userUsecase.AuthInfo), args.Error(1)
}

func (m *mockUserManager) AddRoles(ctx context.Context, username string, roles []string) (*userDomain.User, error) {
	args := m.Called(ctx, username, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserManager) RemoveRole(ctx context.Context, username, role string) (*userDomain.User, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserManager) Suspend(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *mockUserManager) Restore(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *mockUserManager) Approve(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *mockUserManager) Get(ctx context.Context, username string) (*userDomain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserManager) List(ctx context.Context, offset, limit int) ([]*userDomain.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*userDomain.User), args.Error(1)
}

type mockRoleRegistry struct {
	mock.Mock
}

func (m *mockRoleRegistry) Add(ctx context.Context, input *roleDomain.AddRoleInput) (*roleDomain.Role, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*roleDomain.Role), args.Error(1)
}

func (m *mockRoleRegistry) Get(ctx context.Context, name string) (*roleDomain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*roleDomain.Role), args.Error(1)
}

func (m *mockRoleRegistry) List(ctx context.Context) ([]*roleDomain.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*roleDomain.Role), args.Error(1)
}

func (m *mockRoleRegistry) Remove(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockRoleRegistry) AddPermission(ctx context.Context, name string, permissions []string) (*roleDomain.Role, error) {
	args := m.Called(ctx, name, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*roleDomain.Role), args.Error(1)
}

func (m *mockRoleRegistry) RemovePermission(ctx context.Context, name string, permissions []string) (*roleDomain.Role, error) {
	args := m.Called(ctx, name, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*roleDomain.Role), args.Error(1)
}

func (m *mockRoleRegistry) GetValidRoles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRoleRegistry) IsValidRole(ctx context.Context, names []string) (bool, error) {
	args := m.Called(ctx, names)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoleRegistry) CalculatePermissions(ctx context.Context, names ...string) ([]string, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRoleRegistry) HasPermission(ctx context.Context, name, permission string) (bool, error) {
	args := m.Called(ctx, name, permission)
	return args.Bool(0), args.Error(1)
}

type mockAccessKeyManager struct {
	mock.Mock
}

func (m *mockAccessKeyManager) Create(ctx context.Context, input accessKeyUsecase.CreateAccessKeyInput) (*accessKeyUsecase.CreateAccessKeyOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessKeyUsecase.CreateAccessKeyOutput), args.Error(1)
}

func (m *mockAccessKeyManager) Validate(ctx context.Context, key, secret string) (*accessKeyDomain.AccessKey, bool, error) {
	args := m.Called(ctx, key, secret)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*accessKeyDomain.AccessKey), args.Bool(1), args.Error(2)
}

func (m *mockAccessKeyManager) GetToken(ctx context.Context, key, secret string, tokenData map[string]any) (string, error) {
	args := m.Called(ctx, key, secret, tokenData)
	return args.String(0), args.Error(1)
}

func (m *mockAccessKeyManager) List(ctx context.Context, userID uuid.UUID) ([]*accessKeyDomain.AccessKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accessKeyDomain.AccessKey), args.Error(1)
}

func (m *mockAccessKeyManager) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
