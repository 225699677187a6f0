// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	fhevm "github.com/luxfi/fhevm-sdk"
	"github.com/luxfi/fhevm-sdk/crypto/fhe"
	"github.com/luxfi/fhevm-sdk/crypto/fhe/local"
	"github.com/luxfi/fhevm-sdk/gateway"
)

const shutdownTimeout = 5 * time.Second

func newPublicKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "public-key",
		Short: "Print the network public key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			inst, err := e.instance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), inst.PublicKey())
			return nil
		},
	}
}

func newEncryptCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a single typed value",
		Long: `Encrypt a single value under the network public key.

Example:
  fhevm encrypt --value uint32:100000 --public-key 0x...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typ, raw, err := parseValue(value)
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			inst, err := e.instance(cmd.Context())
			if err != nil {
				return err
			}
			ct, err := encryptValue(cmd.Context(), inst.Encrypt(), typ, raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(ct.Bytes()))
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "Typed value such as uint8:42, bool:true or address:0x...")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

type inputOutput struct {
	Contract   string   `json:"contract"`
	User       string   `json:"user"`
	Handles    []string `json:"handles"`
	InputProof string   `json:"inputProof"`
}

func newInputCmd() *cobra.Command {
	var (
		contract string
		user     string
		values   []string
	)

	cmd := &cobra.Command{
		Use:   "input",
		Short: "Encrypt a batch of values for one contract call",
		Long: `Encrypt several typed values for a contract call and print their
handles and the input proof.

Example:
  fhevm input --contract 0x... --user 0x... --value uint8:10 --value uint16:500`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			contractAddr, err := fhevm.ParseAddress(contract)
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			userAddr, err := e.user(user)
			if err != nil {
				return err
			}
			inst, err := e.instance(cmd.Context())
			if err != nil {
				return err
			}

			in, err := inst.Contract().CreateInput(contractAddr, userAddr)
			if err != nil {
				return err
			}
			for _, v := range values {
				typ, raw, err := parseValue(v)
				if err != nil {
					return err
				}
				if err := addValue(in, typ, raw); err != nil {
					return err
				}
			}
			res, err := in.Encrypt(cmd.Context())
			if err != nil {
				return err
			}

			out := inputOutput{
				Contract:   contractAddr.Hex(),
				User:       userAddr.Hex(),
				Handles:    make([]string, len(res.Handles)),
				InputProof: res.InputProof,
			}
			for i, h := range res.Handles {
				out.Handles[i] = h.Hex()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&contract, "contract", "", "Contract address")
	cmd.Flags().StringVar(&user, "user", "", "User address, defaults to the signer")
	cmd.Flags().StringArrayVar(&values, "value", nil, "Typed value, may be repeated")
	_ = cmd.MarkFlagRequired("contract")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newPermissionCmd() *cobra.Command {
	var contract string

	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Sign a decryption permission for a contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			contractAddr, err := fhevm.ParseAddress(contract)
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			userAddr, err := e.user("")
			if err != nil {
				return err
			}
			inst, err := e.instance(cmd.Context())
			if err != nil {
				return err
			}
			sig, err := inst.Contract().GeneratePermission(cmd.Context(), contractAddr, userAddr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&contract, "contract", "", "Contract address")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a development gateway",
		Long: `Serve the gateway public key and decryption routes from an in-process
runtime. A random public key is generated unless --public-key is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			return serve(cmd, e)
		},
	}
}

func serve(cmd *cobra.Command, e *env) error {
	publicKey := e.cfg.PublicKey
	if publicKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("failed to generate public key: %w", err)
		}
		publicKey = hexutil.Encode(key)
	}

	rt, err := local.New(fhe.RuntimeConfig{
		ChainID:   e.cfg.ChainID,
		PublicKey: publicKey,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/", gateway.NewServer(publicKey, rt, e.log).Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle(gateway.HealthPath, gateway.HealthHandler("fhevm-gateway", func(ctx context.Context) error {
		_, err := rt.Encrypt(ctx, fhe.NewBool(true))
		return err
	}))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", e.cfg.APIPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errGroup, ctx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	errGroup.Go(func() error {
		e.log.Info("development gateway listening",
			log.String("addr", httpServer.Addr),
			log.Uint64("chainID", e.cfg.ChainID),
			log.String("publicKey", publicKey),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start gateway server: %w", err)
		}
		stop()
		return nil
	})
	return errGroup.Wait()
}
