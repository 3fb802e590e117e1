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

// cycleCmd runs one reconciliation cycle for a single site.
var cycleCmd = &cobra.Command{
	Use:   "cycle [site-id]",
	Short: "Run one reconciliation cycle for a site",
	Long: `Diffs the site's sitemap against tracked state, filters dead pages,
and submits live new-or-changed URLs through the enabled channels.

Skips silently when another worker holds the site's autoIndex lock.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCycle(cmd.Context(), args[0])
	},
}

func init() {
	RootCmd.AddCommand(cycleCmd)
}

func runCycle(ctx context.Context, rawID string) {
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

	result, err := svc.RunCycle(ctx, uint(siteID))
	if err != nil {
		logg.Fatal("Reconciliation cycle failed", zap.Error(err))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
