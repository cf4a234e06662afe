package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/config"
	"github.com/fentz26/taskmaster/internal/controlplane"
	"github.com/fentz26/taskmaster/internal/logger"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "taskmaster",
	Short: "TaskMaster - recurring task reminders",
	Long: `TaskMaster keeps a catalog of recurring and one-off tasks and, every time
it is run, sends a reminder for each task that is due.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that must work without a valid configuration.
		skipCommands := map[string]bool{
			"version": true,
			"help":    true,
			"init":    true,
		}
		if skipCommands[cmd.Name()] {
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of TaskMaster",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TaskMaster version %s\n", Version)
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Go version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.taskmaster/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logger.level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads configuration and builds the logger.
func setup() error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Logger.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	l, err := logger.New(c.Logger)
	if err != nil {
		return err
	}

	cfg, log = c, l
	controlplane.Version = Version
	return applyTimezone(c.Timezone)
}

// applyTimezone makes tz the process-wide zone. Every schedule is read and
// compared in that one zone.
func applyTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	time.Local = loc
	return nil
}

// @title       TaskMaster API
// @description Task catalog, reminder inbox, pass history and on-demand reminder passes.
// @version     1
// @host        127.0.0.1:7466
// @schemes     http
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
