package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/internal/storage/postgres"
)

const userCommandTimeout = 30 * time.Second

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newUserCreateCommand(opts))
	cmd.AddCommand(newHashPasswordCommand())
	return cmd
}

func newUserCreateCommand(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create <email> <name>",
		Short: "Create a staff account",
		Long: `Create a staff account that can sign in to EventDesk.

The password is taken from --password or, when that is omitted, read as the
first line of stdin:

  echo 's3cret-pass' | eventdesk user create ada@example.com "Ada Lovelace"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := passwordFrom(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := config.NewLoggerTo(cfg.Logging, cmd.ErrOrStderr())

			opener, err := postgres.NewOpener(cfg.Database.URL)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), userCommandTimeout)
			defer cancel()
			user, err := createUser(ctx, opener, auth.Passwords{}, args[0], args[1], plain)
			if err != nil {
				return err
			}
			logger.Info().Int64("user_id", user.ID).Msg("user created")
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a password hash suitable for the users table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := passwordFrom(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := auth.Passwords{}.Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to hash (read from stdin when omitted)")
	return cmd
}

// createUser inserts the account inside its own connection scope.
func createUser(ctx context.Context, opener storage.Opener, passwords users.Passwords, email, name, password string) (*users.User, error) {
	var created *users.User
	err := storage.WithScope(ctx, opener, func(ctx context.Context, scope *storage.Scope) error {
		store, err := scope.Store(ctx)
		if err != nil {
			return err
		}
		created, err = users.NewService(store.Users(), passwords).Create(ctx, email, name, password)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// passwordFrom returns flag when set, otherwise the first line of in.
func passwordFrom(flag string, in io.Reader) (string, error) {
	if flag != "" {
		return flag, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required (use --password or pipe it on stdin)")
	}
	return line, nil
}
