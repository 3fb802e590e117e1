package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"site-indexer/core/config"
	"site-indexer/core/logger"
	"site-indexer/feature/indexing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var grantReason string

// creditsCmd is the parent command for credit ledger operations.
var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Manage prepaid submission credits",
	Long: `Inspect and top up prepaid credit balances. Every search engine
submission costs credits; accounts with an empty balance have their search
channel skipped until topped up.`,
}

// creditsBalanceCmd prints an account's balance.
var creditsBalanceCmd = &cobra.Command{
	Use:   "balance [account-id]",
	Short: "Show an account's credit balance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withCreditService(cmd.Context(), args[0], func(ctx context.Context, svc *indexing.Service, accountID uint) {
			balance, err := svc.CreditBalance(ctx, accountID)
			if err != nil {
				fmt.Printf("Failed to read balance: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Account %d balance: %d credits\n", accountID, balance)
		})
	},
}

// creditsGrantCmd tops up an account.
var creditsGrantCmd = &cobra.Command{
	Use:   "grant [account-id] [amount]",
	Short: "Grant credits to an account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		amount, err := strconv.Atoi(args[1])
		if err != nil || amount <= 0 {
			fmt.Printf("Invalid amount %q\n", args[1])
			os.Exit(1)
		}
		withCreditService(cmd.Context(), args[0], func(ctx context.Context, svc *indexing.Service, accountID uint) {
			balance, err := svc.GrantCredits(ctx, accountID, amount, grantReason)
			if err != nil {
				fmt.Printf("Failed to grant credits: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Granted %d credits to account %d, new balance: %d\n", amount, accountID, balance)
		})
	},
}

func init() {
	creditsGrantCmd.Flags().StringVar(&grantReason, "reason", "manual grant", "Reason recorded in the credit ledger")
	creditsCmd.AddCommand(creditsBalanceCmd)
	creditsCmd.AddCommand(creditsGrantCmd)
	RootCmd.AddCommand(creditsCmd)
}

func withCreditService(ctx context.Context, rawID string, fn func(context.Context, *indexing.Service, uint)) {
	accountID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		fmt.Printf("Invalid account id %q\n", rawID)
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

	fn(ctx, svc, uint(accountID))
}
