package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/omtrack/internal/cache"
	"github.com/hargabyte/omtrack/internal/config"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the parsed-entry cache",
	Long: `Manage the sqlite cache of parsed entries under .omtrack/.

The cache is derived state keyed by a hash of the raw log; clearing it is
always safe and forces the next command to reparse.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached entries",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return fmt.Errorf("omtrack not initialized: run 'omtrack init' first")
	}

	db, err := cache.Open(configDir)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	if err := db.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Println("Cache cleared.")
	return nil
}
