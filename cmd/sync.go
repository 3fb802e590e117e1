package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"site-indexer/core/config"
	"site-indexer/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd refreshes the tracked URL set without submitting anything.
var syncCmd = &cobra.Command{
	Use:   "sync [site-id]",
	Short: "Sync a site's tracked URLs from its sitemap",
	Long: `Fetches the sitemap and reconciles the tracked URL set (new, changed,
removed) without performing any submissions. Useful for previewing what the
next cycle would submit.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSync(cmd.Context(), args[0])
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}

func runSync(ctx context.Context, rawID string) {
	siteID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		fmt.Printf("Invalid site id %q\n", rawID)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	svc, err := buildService(cfg, logg)
	if err != nil {
		logg.Fatal("Failed to wire indexing service", zap.Error(err))
	}

	result, err := svc.SyncURLs(ctx, uint(siteID))
	if err != nil {
		logg.Fatal("URL sync failed", zap.Error(err))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
