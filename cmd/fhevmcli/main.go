// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command fhevm encrypts values, builds contract inputs and signs permissions
// against an FHEVM network, and runs a development gateway.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	fhevm "github.com/luxfi/fhevm-sdk"
	"github.com/luxfi/fhevm-sdk/config"
	"github.com/luxfi/fhevm-sdk/crypto/fhe/local"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fhevm",
		Short: "FHEVM client tools",
		Long: `Encrypt values, assemble encrypted contract inputs and sign decryption
permissions for an FHEVM network.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(cmd.PersistentFlags())

	help := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		help(c, args)
		fmt.Fprintln(c.OutOrStdout())
		config.DisplayUsageText(c.OutOrStdout())
	})

	cmd.AddCommand(newPublicKeyCmd())
	cmd.AddCommand(newEncryptCmd())
	cmd.AddCommand(newInputCmd())
	cmd.AddCommand(newPermissionCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// env carries the settings shared by every command.
type env struct {
	cfg config.Config
	log log.Logger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return nil, err
	}

	logger := log.NewNoOpLogger()
	if !cfg.Quiet {
		logger = log.New("cmd", "fhevm")
	}
	return &env{cfg: cfg, log: logger}, nil
}

// instance returns an initialized Instance running the in-process runtime.
func (e *env) instance(ctx context.Context) (*fhevm.Instance, error) {
	sdkCfg, err := e.cfg.SDKConfig()
	if err != nil {
		return nil, err
	}
	return fhevm.New(ctx, sdkCfg,
		fhevm.WithLogger(e.log),
		fhevm.WithRuntime(local.Bootstrap),
	)
}

// user resolves the --user flag, defaulting to the configured signer.
func (e *env) user(flag string) (common.Address, error) {
	if flag != "" {
		return fhevm.ParseAddress(flag)
	}
	s, err := e.cfg.Signer()
	if err != nil {
		return common.Address{}, err
	}
	if s == nil {
		return common.Address{}, fmt.Errorf("--user or --%s is required", config.PrivateKeyKey)
	}
	return s.Address(), nil
}
