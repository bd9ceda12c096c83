package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/identity/cmd/app/commands"
	"github.com/allisson/identity/internal/app"
	"github.com/allisson/identity/internal/config"
)

func getIdentityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Register a new user account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Unique username for the account",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Display name",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address",
				},
				&cli.StringFlag{
					Name:  "phone",
					Usage: "Phone number (optional)",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Initial password (omit to generate a random one)",
				},
				&cli.StringFlag{
					Name:    "roles",
					Aliases: []string{"r"},
					Usage:   "Comma-separated list of role names",
				},
				&cli.BoolFlag{
					Name:    "approve",
					Aliases: []string{"a"},
					Value:   false,
					Usage:   "Approve the account immediately",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userManager, err := container.UserManager()
				if err != nil {
					return err
				}

				return commands.RunCreateUser(
					ctx,
					userManager,
					container.Logger(),
					cmd.String("username"),
					cmd.String("name"),
					cmd.String("email"),
					cmd.String("phone"),
					cmd.String("password"),
					cmd.String("roles"),
					cmd.Bool("approve"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "create-role",
			Usage: "Create a role with a set of permissions",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Role name",
				},
				&cli.StringFlag{
					Name:     "permissions",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Comma-separated list of permission strings",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				registry, err := container.RoleRegistry()
				if err != nil {
					return err
				}

				return commands.RunCreateRole(
					ctx,
					registry,
					container.Logger(),
					cmd.String("name"),
					cmd.String("permissions"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "create-access-key",
			Usage: "Issue an access key for an existing user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Username of the key owner",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable key name",
				},
				&cli.StringFlag{
					Name:    "scopes",
					Aliases: []string{"s"},
					Usage:   "Comma-separated list of scope strings",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accessKeyManager, err := container.AccessKeyManager()
				if err != nil {
					return err
				}

				userManager, err := container.UserManager()
				if err != nil {
					return err
				}

				return commands.RunCreateAccessKey(
					ctx,
					accessKeyManager,
					userManager,
					container.Logger(),
					cmd.String("username"),
					cmd.String("name"),
					cmd.String("scopes"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
