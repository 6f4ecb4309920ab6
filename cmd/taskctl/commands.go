package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/config"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/internal/infrastructure/security"
	"github.com/fastygo/taskboard/internal/infrastructure/storage"
	"github.com/fastygo/taskboard/usecase"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply pending schema migrations from MIGRATIONS_PATH.

Only the postgres driver has a schema; the bolt store creates its buckets on open.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Driver != config.StorageDriverPostgres {
			fmt.Fprintf(cmd.OutOrStdout(), "storage driver %q needs no migrations\n", cfg.Storage.Driver)
			return nil
		}
		cfg.Migrations.Enabled = true
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account if the email is unused",
	RunE:  runCreateAdmin,
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change the role of an existing account",
	Long: `Change the role of an existing account.

This is the only way to promote or demote users; the HTTP API never accepts a role.`,
	RunE: runSetRole,
}

func init() {
	createAdminCmd.Flags().String("name", "Administrator", "display name")
	createAdminCmd.Flags().String("email", "", "login email (required)")
	createAdminCmd.Flags().String("password", "", "initial password (required)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	setRoleCmd.Flags().String("email", "", "account email (required)")
	setRoleCmd.Flags().String("role", "", "user or admin (required)")
	_ = setRoleCmd.MarkFlagRequired("email")
	_ = setRoleCmd.MarkFlagRequired("role")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	return withProfiles(cmd.Context(), func(uc *profileUC.UseCase) error {
		user, created, err := uc.EnsureAdmin(cmd.Context(), name, email, password)
		if err != nil {
			return describe(err)
		}
		if !created {
			fmt.Fprintf(cmd.OutOrStdout(), "account %s already exists (role %s)\n", user.Email, user.Role)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", user.Email, user.ID)
		return nil
	})
}

func runSetRole(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	rawRole, _ := cmd.Flags().GetString("role")

	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return err
	}

	return withProfiles(cmd.Context(), func(uc *profileUC.UseCase) error {
		user, err := uc.AssignRole(cmd.Context(), email, role)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
		return nil
	})
}

func withProfiles(ctx context.Context, fn func(uc *profileUC.UseCase) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.Open(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	uc := profileUC.New(
		store.Users,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		usecase.SystemClock{Location: cfg.Location()},
		zapLogger,
	)
	return fn(uc)
}

// describe surfaces validation details, which the generic message hides.
func describe(err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) && len(dErr.Details) > 0 {
		return fmt.Errorf("%s: %v", dErr.Message, dErr.Details)
	}
	return err
}
