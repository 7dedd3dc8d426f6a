// Package commands defines the notesorter CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - run      Run the sorting control loop, status API, and input dispatcher
//   - tally    Listen on the coin channel and maintain denomination counters
//   - view     One-shot move to the compartment viewing position
//   - home     One-shot return to the home position
//   - version  Print build information
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cashm/note-sorter/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	cfg        *config.Config
)

// Execute builds the command tree and runs it.
func Execute() error {
	root := &cobra.Command{
		Use:   "notesorter",
		Short: "Currency note sorting engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env may carry NOTESORTER_CONFIG; a missing file is fine.
			_ = godotenv.Load()

			path := configPath
			if path == "" {
				path = os.Getenv("NOTESORTER_CONFIG")
			}
			if path == "" {
				path = discoverConfig()
			}
			if path == "" {
				return errors.New("no config found. Place config.json next to the exe, use --config <path>, or set NOTESORTER_CONFIG")
			}

			c, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = c
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration JSON file")

	root.AddCommand(runCmd(), tallyCmd(), viewCmd(), homeCmd(), versionCmd())
	return root.Execute()
}

// discoverConfig looks for config.json next to the executable, then in the cwd.
func discoverConfig() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return ""
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Runs without a config file.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("notesorter %s (commit=%s, built=%s)\n", version, commit, date)
		},
	}
}
