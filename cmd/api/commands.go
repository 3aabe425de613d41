package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/di"
	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/service"
)

// globalFlags are shared by every command. Each one falls back to the
// environment variable config.Load reads, so an unset flag changes nothing.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "env-file", Usage: "path to a .env file", Value: ".env"},
		&cli.StringFlag{Name: "env", Usage: "environment (development, staging, production)"},
		&cli.StringFlag{Name: "log-level", Usage: "log level (debug, info, warn, error)"},
		&cli.StringFlag{Name: "data-path", Usage: "directory holding the database, key and media"},
	}
}

func overridesFrom(cmd *cli.Command) config.Overrides {
	return config.Overrides{
		EnvFile:       cmd.String("env-file"),
		Env:           cmd.String("env"),
		LogLevel:      cmd.String("log-level"),
		DataPath:      cmd.String("data-path"),
		Port:          cmd.String("port"),
		ReadTimeout:   cmd.String("read-timeout"),
		WriteTimeout:  cmd.String("write-timeout"),
		IdleTimeout:   cmd.String("idle-timeout"),
		TokenPolicy:   cmd.String("token-policy"),
		TokenDuration: cmd.String("token-duration"),
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port"},
			&cli.StringFlag{Name: "read-timeout", Usage: "HTTP read timeout (e.g. 15s)"},
			&cli.StringFlag{Name: "write-timeout", Usage: "HTTP write timeout"},
			&cli.StringFlag{Name: "idle-timeout", Usage: "HTTP idle timeout"},
			&cli.StringFlag{Name: "token-policy", Usage: "what login does to existing tokens (reuse, rotate)"},
			&cli.StringFlag{Name: "token-duration", Usage: "token lifetime (e.g. 720h)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			injector := di.NewServerContainer(overridesFrom(cmd))

			if err := di.Serve(injector); err != nil {
				return fmt.Errorf("failed to bootstrap server: %w", err)
			}

			log := do.MustInvoke[*logger.Logger](injector)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info("Shutting down server gracefully...")

			// The container shuts services down in reverse dependency order,
			// so the HTTP server drains before the database closes.
			if err := injector.Shutdown(); err != nil {
				log.Error("Shutdown error", "error", err)
				return err
			}

			log.Info("Server stopped")
			return nil
		},
	}
}

func createSuperuserCmd() *cli.Command {
	return &cli.Command{
		Name:  "createsuperuser",
		Usage: "Create an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Usage:    "login email",
				Sources:  cli.EnvVars("SUPERUSER_EMAIL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "password (prefer SUPERUSER_PASSWORD over the flag)",
				Sources:  cli.EnvVars("SUPERUSER_PASSWORD"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Usage:    "display name",
				Sources:  cli.EnvVars("SUPERUSER_NAME"),
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			injector := di.NewContainer(overridesFrom(cmd))
			defer func() { _ = injector.Shutdown() }()

			if err := di.Bootstrap(injector); err != nil {
				return err
			}

			users := do.MustInvoke[*service.UserService](injector)
			existing, err := users.Count(ctx)
			if err != nil {
				return err
			}

			user, err := users.CreateSuperuser(ctx, service.RegisterRequest{
				Email:    cmd.String("email"),
				Password: cmd.String("password"),
				Name:     cmd.String("name"),
			})
			if err != nil {
				return fmt.Errorf("create superuser: %w", err)
			}

			fmt.Fprintf(cmd.Root().Writer, "Superuser %s created.\n", user.Email)
			if existing == 0 {
				fmt.Fprintln(cmd.Root().Writer, "This is the first account on this server. Log in with POST /api/v1/users/token/.")
			}
			return nil
		},
	}
}

func setActiveCmd() *cli.Command {
	return &cli.Command{
		Name:  "setactive",
		Usage: "Enable or disable login for an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
			&cli.BoolFlag{Name: "active", Usage: "allow the account to log in", Value: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			injector := di.NewContainer(overridesFrom(cmd))
			defer func() { _ = injector.Shutdown() }()

			if err := di.Bootstrap(injector); err != nil {
				return err
			}

			users := do.MustInvoke[*service.UserService](injector)
			user, err := users.SetActive(ctx, cmd.String("email"), cmd.Bool("active"))
			if err != nil {
				return fmt.Errorf("set active: %w", err)
			}

			state := "disabled"
			if user.IsActive {
				state = "enabled"
			}
			fmt.Fprintf(cmd.Root().Writer, "Login %s for %s.\n", state, user.Email)
			return nil
		},
	}
}
