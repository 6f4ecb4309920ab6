package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/pkg/logger"
)

var (
	cfg       *config.Config
	zapLogger *zap.Logger
)

// rootCmd is the operator CLI. It talks to the same store as the server.
var rootCmd = &cobra.Command{
	Use:           "taskctl",
	Short:         "Operate the task board store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded

		zapLogger, err = logger.New(logger.Config{
			Level:    cfg.Logger.Level,
			Encoding: "console",
			Service:  "taskctl",
			Output:   cmd.ErrOrStderr(),
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zapLogger != nil {
			_ = zapLogger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, createAdminCmd, setRoleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
