package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linlinbupt123-crypto/zig_transfer/chain"
	"github.com/linlinbupt123-crypto/zig_transfer/config"
	"github.com/linlinbupt123-crypto/zig_transfer/logger"
	"github.com/linlinbupt123-crypto/zig_transfer/repository"
	"github.com/linlinbupt123-crypto/zig_transfer/request"
	"github.com/linlinbupt123-crypto/zig_transfer/service"
)

const (
	FlagConfigFile = "config"
	FlagWallets    = "wallets"
	FlagMode       = "mode"
	FlagAmount     = "amount"
)

var (
	configPath  string
	walletsPath string
	mode        string
	amount      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zig_transfer",
		Short: "Send ZIG from every wallet in a file to one recipient",
		Long: `Reads wallet credentials from a JSON file and sends a native token transfer
from each wallet to the configured recipient, one wallet at a time.

Modes: 1 = fixed amount, 2 = random whole amount, 3 = all balance minus fee reserve.
Without --mode the tool asks interactively.

Example:
  zig_transfer -c config/config.yaml -w wallets.json --mode 1 --amount 2.5`,
		SilenceUsage: true,
		RunE:         runTransfer,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, FlagConfigFile, "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&walletsPath, FlagWallets, "w", "", "Path to the wallets JSON file (overrides wallets_file)")
	rootCmd.PersistentFlags().StringVar(&mode, FlagMode, "", "Transfer mode 1/2/3, skips the prompt")
	rootCmd.PersistentFlags().StringVar(&amount, FlagAmount, "", "Amount for mode 1, in display units")

	rootCmd.AddCommand(&cobra.Command{
		Use:          "transfer",
		Short:        "Run the transfer loop (default command)",
		SilenceUsage: true,
		RunE:         runTransfer,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	log, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Error("load config failed")
		return err
	}
	if walletsPath != "" {
		cfg.WalletsFile = walletsPath
	}

	cosmos, err := chain.NewCosmosChain(cfg.Chain)
	if err != nil {
		log.WithError(err).Error("invalid chain config")
		return err
	}

	var input request.InputProvider = request.NewTerminalInput(os.Stdin, os.Stdout)
	if mode != "" {
		input = request.NewScriptedInput(mode, amount)
	}

	svc, err := service.NewTransferService(cfg, cosmos, repository.NewWalletRepo(cfg.WalletsFile), input, log)
	if err != nil {
		log.WithError(err).Error("invalid transfer config")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = svc.Run(ctx)
	return err
}
