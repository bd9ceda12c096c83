package app

import (
	"fmt"

	accessKeyRepository "github.com/allisson/identity/internal/accesskey/repository"
	accessKeyUsecase "github.com/allisson/identity/internal/accesskey/usecase"
	credentialUsecase "github.com/allisson/identity/internal/credential/usecase"
	roleRepository "github.com/allisson/identity/internal/role/repository"
	roleUsecase "github.com/allisson/identity/internal/role/usecase"
	userRepository "github.com/allisson/identity/internal/user/repository"
	userUsecase "github.com/allisson/identity/internal/user/usecase"
)

// UserRepository returns the user repository matching the configured driver.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["userRepo"]; exists {
		return nil, err
	}
	return c.userRepo, nil
}

// RoleRepository returns the role repository matching the configured driver.
func (c *Container) RoleRepository() (roleUsecase.RoleRepository, error) {
	c.roleRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["roleRepo"] = fmt.Errorf("failed to get database for role repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.roleRepo = roleRepository.NewMySQLRoleRepository(db)
		case "postgres":
			c.roleRepo = roleRepository.NewPostgreSQLRoleRepository(db)
		default:
			c.initErrors["roleRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["roleRepo"]; exists {
		return nil, err
	}
	return c.roleRepo, nil
}

// AccessKeyRepository returns the access key repository matching the configured driver.
func (c *Container) AccessKeyRepository() (accessKeyUsecase.AccessKeyRepository, error) {
	c.accessKeyRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["accessKeyRepo"] = fmt.Errorf("failed to get database for access key repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.accessKeyRepo = accessKeyRepository.NewMySQLAccessKeyRepository(db)
		case "postgres":
			c.accessKeyRepo = accessKeyRepository.NewPostgreSQLAccessKeyRepository(db)
		default:
			c.initErrors["accessKeyRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["accessKeyRepo"]; exists {
		return nil, err
	}
	return c.accessKeyRepo, nil
}

// RoleRegistry returns the role registry use case.
func (c *Container) RoleRegistry() (roleUsecase.Registry, error) {
	c.roleRegistryInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["roleRegistry"] = fmt.Errorf("failed to get tx manager for role registry: %w", err)
			return
		}

		roleRepo, err := c.RoleRepository()
		if err != nil {
			c.initErrors["roleRegistry"] = fmt.Errorf("failed to get role repository for role registry: %w", err)
			return
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["roleRegistry"] = fmt.Errorf("failed to get business metrics for role registry: %w", err)
			return
		}

		c.roleRegistry = roleUsecase.NewRegistryWithMetrics(
			roleUsecase.NewRegistry(txManager, roleRepo),
			bm,
		)
	})
	if err, exists := c.initErrors["roleRegistry"]; exists {
		return nil, err
	}
	return c.roleRegistry, nil
}

// UserManager returns the user manager use case.
func (c *Container) UserManager() (userUsecase.Manager, error) {
	c.userManagerInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["userManager"] = fmt.Errorf("failed to get tx manager for user manager: %w", err)
			return
		}

		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["userManager"] = fmt.Errorf("failed to get user repository for user manager: %w", err)
			return
		}

		roleRegistry, err := c.RoleRegistry()
		if err != nil {
			c.initErrors["userManager"] = fmt.Errorf("failed to get role registry for user manager: %w", err)
			return
		}

		tokenManager, err := c.TokenManager()
		if err != nil {
			c.initErrors["userManager"] = fmt.Errorf("failed to get token manager for user manager: %w", err)
			return
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["userManager"] = fmt.Errorf("failed to get business metrics for user manager: %w", err)
			return
		}

		c.userManager = userUsecase.NewManagerWithMetrics(
			userUsecase.NewManager(
				txManager,
				userRepo,
				roleRegistry,
				c.Hasher(),
				tokenManager,
				c.Messenger(),
				c.config.SessionTokenExpiration,
				c.Logger(),
			),
			bm,
		)
	})
	if err, exists := c.initErrors["userManager"]; exists {
		return nil, err
	}
	return c.userManager, nil
}

// AccessKeyManager returns the access key manager use case.
func (c *Container) AccessKeyManager() (accessKeyUsecase.Manager, error) {
	c.accessKeyManagerInit.Do(func() {
		accessKeyRepo, err := c.AccessKeyRepository()
		if err != nil {
			c.initErrors["accessKeyManager"] = fmt.Errorf("failed to get access key repository for access key manager: %w", err)
			return
		}

		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["accessKeyManager"] = fmt.Errorf("failed to get user repository for access key manager: %w", err)
			return
		}

		tokenManager, err := c.TokenManager()
		if err != nil {
			c.initErrors["accessKeyManager"] = fmt.Errorf("failed to get token manager for access key manager: %w", err)
			return
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["accessKeyManager"] = fmt.Errorf("failed to get business metrics for access key manager: %w", err)
			return
		}

		c.accessKeyManager = accessKeyUsecase.NewManagerWithMetrics(
			accessKeyUsecase.NewManager(accessKeyRepo, userRepo, c.Hasher(), tokenManager),
			bm,
		)
	})
	if err, exists := c.initErrors["accessKeyManager"]; exists {
		return nil, err
	}
	return c.accessKeyManager, nil
}

// CredentialLifecycle returns the password lifecycle use case.
func (c *Container) CredentialLifecycle() (credentialUsecase.Lifecycle, error) {
	c.credentialLifecycleInit.Do(func() {
		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["credentialLifecycle"] = fmt.Errorf("failed to get user repository for credential lifecycle: %w", err)
			return
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["credentialLifecycle"] = fmt.Errorf("failed to get business metrics for credential lifecycle: %w", err)
			return
		}

		c.credentialLifecycle = credentialUsecase.NewLifecycleWithMetrics(
			credentialUsecase.NewLifecycle(
				userRepo,
				c.Hasher(),
				c.Messenger(),
				c.config.PasswordPolicy(),
				c.Logger(),
			),
			bm,
		)
	})
	if err, exists := c.initErrors["credentialLifecycle"]; exists {
		return nil, err
	}
	return c.credentialLifecycle, nil
}
