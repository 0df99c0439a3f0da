package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .omtrack directory and default config",
	Long: `Initialize the .omtrack directory with a default config.yaml in the
current directory, and create the progression log if it doesn't exist.

Examples:
  omtrack init          # Initialize in current directory
  omtrack init --force  # Overwrite an existing config`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cfgFile := filepath.Join(cwd, config.ConfigDirName, config.ConfigFileName)
	if _, err := os.Stat(cfgFile); err == nil {
		if !initForce {
			relPath, _ := filepath.Rel(cwd, cfgFile)
			fmt.Printf("Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(cfgFile); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	written, err := config.SaveDefault(cwd)
	if err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.LoadFromPath(written)
	if err != nil {
		return err
	}

	logPath := filepath.Join(cwd, cfg.Log.Path)
	if logPathFlag != "" {
		logPath = logPathFlag
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		if err := os.WriteFile(logPath, nil, 0644); err != nil {
			return fmt.Errorf("creating progression log: %w", err)
		}
	}

	relPath, _ := filepath.Rel(cwd, written)
	fmt.Printf("Initialized omtrack config at %s\n", relPath)

	return nil
}
