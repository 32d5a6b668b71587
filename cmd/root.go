package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/emojify/internal/config"
	"github.com/andresmejia3/emojify/internal/logger"
	"github.com/andresmejia3/emojify/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// dbAnnotation marks whether a command needs the run history database.
const dbAnnotation = "database"

const (
	dbRequired = "required"
	dbOptional = "optional"
)

var (
	// DB is the run history store shared by subcommands. It stays nil when
	// no database is configured for commands that can do without one.
	DB *store.Store
	// Cfg is the environment configuration, loaded before every command.
	Cfg config.Config
	// Log is the application logger.
	Log *logrus.Logger

	dbURL    string
	logLevel string
	logFile  string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "emojify",
	Short:   "Replace faces in photos with the emoji that matches their expression",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if Cfg, err = config.Load(); err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			Cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			Cfg.LogFile = logFile
		}
		if Log, err = logger.New(Cfg.LogLevel, Cfg.LogFile); err != nil {
			return err
		}

		return openStore(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
			DB = nil
		}
	},
}

// openStore connects to PostgreSQL for commands that ask for it. The --db flag
// wins over POSTGRES_* from the environment.
func openStore(cmd *cobra.Command) error {
	mode := cmd.Annotations[dbAnnotation]
	if mode == "" {
		return nil
	}

	url := dbURL
	if url == "" {
		var ok bool
		if url, ok = Cfg.DatabaseURL(); !ok {
			if mode == dbRequired {
				return fmt.Errorf("%s needs a database: set --db or POSTGRES_HOST", cmd.Name())
			}
			Log.Debug("no database configured, runs will not be recorded")
			return nil
		}
	}

	var err error
	// Use the command's context (which will be cancellable) for the connection
	DB, err = store.New(cmd.Context(), url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: built from POSTGRES_* variables)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")
}
