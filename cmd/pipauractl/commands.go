package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pipaura/configs"
	"pipaura/internal/app"
	"pipaura/internal/database"
	"pipaura/internal/domain"
	"pipaura/internal/infra"
	"pipaura/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cli carries state shared by every subcommand
type cli struct {
	envFile string
	cfg     *configs.Config
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "pipauractl",
		Short:        "Operate the PipAura MyFxBook sync",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(c.envFile)
			c.cfg = configs.Load()
			c.log = logger.New(logger.Config{
				Level:   c.cfg.Log.Level,
				Pretty:  c.cfg.Log.Pretty,
				Service: "pipauractl",
				Out:     cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		c.newSweepCmd(),
		c.newSyncUserCmd(),
		c.newMigrateCmd(),
		c.newVaultCmd(),
	)
	return root
}

func (c *cli) newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Sync every active linked account once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(cmd.Context(), func(ctx context.Context, services *app.Services) error {
				scheduler := infra.NewScheduler(services.Sweep, "", c.cfg.MyFxBook.SweepTimeout, c.log)
				result, err := scheduler.RunNow(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func (c *cli) newSyncUserCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "sync-user <user-id>",
		Short: "Sync one user's linked MyFxBook account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			return c.withServices(cmd.Context(), func(ctx context.Context, services *app.Services) error {
				result, err := services.Sync.SyncUserByID(ctx, userID, refresh)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", true, "rediscover sub-accounts before syncing")
	return cmd
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
				return database.RunMigrations(ctx, db, c.log)
			})
		},
	}
}

func (c *cli) newVaultCmd() *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Encrypt or decrypt broker passwords with ENC_PASSPHRASE",
	}

	vaultCmd.AddCommand(
		&cobra.Command{
			Use:   "encrypt [plaintext]",
			Short: "Encrypt a value, reading stdin when no argument is given",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runVault(cmd, args, domain.CredentialVault.Encrypt)
			},
		},
		&cobra.Command{
			Use:   "decrypt [ciphertext]",
			Short: "Decrypt a stored iv:ciphertext value, reading stdin when no argument is given",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runVault(cmd, args, domain.CredentialVault.Decrypt)
			},
		},
	)
	return vaultCmd
}

func (c *cli) runVault(cmd *cobra.Command, args []string, op func(domain.CredentialVault, string) (string, error)) error {
	v := app.NewVault(c.cfg.Vault.Passphrase, c.log)
	if v == nil {
		return &domain.ConfigurationError{Setting: "ENC_PASSPHRASE"}
	}

	input, err := argOrStdin(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	out, err := op(v, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func (c *cli) withDatabase(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	db, err := infra.NewDatabase(ctx, c.cfg.Database, c.log)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}

func (c *cli) withServices(ctx context.Context, fn func(context.Context, *app.Services) error) error {
	return c.withDatabase(ctx, func(ctx context.Context, db *sql.DB) error {
		return fn(ctx, app.NewServices(c.cfg, db, c.log))
	})
}

func argOrStdin(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("no input given")
	}
	return line, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
