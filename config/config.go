// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config builds SDK and command line settings from flags,
// environment variables and an optional JSON config file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/geth/common"

	fhevm "github.com/luxfi/fhevm-sdk"
	"github.com/luxfi/fhevm-sdk/signer"
)

const (
	DefaultChainID        = 11155111
	DefaultRequestTimeout = 30 * time.Second
	defaultAPIPort        = 7077
)

var (
	errMissingChainID = errors.New("chain-id is required")
	errInvalidAddress = errors.New("invalid address")
)

// Config is the decoded configuration.
type Config struct {
	Quiet              bool          `mapstructure:"quiet" json:"quiet"`
	ChainID            uint64        `mapstructure:"chain-id" json:"chain-id"`
	GatewayURL         string        `mapstructure:"gateway-url" json:"gateway-url"`
	PublicKey          string        `mapstructure:"public-key" json:"public-key"`
	KMSVerifierURL     string        `mapstructure:"kms-verifier-url" json:"kms-verifier-url"`
	ACLAddress         string        `mapstructure:"acl-address" json:"acl-address"`
	KMSVerifierAddress string        `mapstructure:"kms-verifier-address" json:"kms-verifier-address"`
	PrivateKey         string        `mapstructure:"private-key" json:"-"`
	RequestTimeout     time.Duration `mapstructure:"request-timeout" json:"request-timeout"`
	APIPort            uint16        `mapstructure:"api-port" json:"api-port"`
}

// Validate checks the settings that do not depend on the network.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return errMissingChainID
	}
	for key, addr := range map[string]string{
		ACLAddressKey:         c.ACLAddress,
		KMSVerifierAddressKey: c.KMSVerifierAddress,
	} {
		if addr == "" {
			continue
		}
		if _, err := fhevm.ParseAddress(addr); err != nil {
			return fmt.Errorf("%w: %s: %v", errInvalidAddress, key, err)
		}
	}
	if c.PrivateKey != "" {
		if _, err := signer.NewKeySignerFromHex(c.PrivateKey); err != nil {
			return fmt.Errorf("invalid %s: %w", PrivateKeyKey, err)
		}
	}
	return nil
}

// Signer returns the local signer for the configured private key, or nil
// when none is set.
func (c *Config) Signer() (*signer.KeySigner, error) {
	if c.PrivateKey == "" {
		return nil, nil
	}
	return signer.NewKeySignerFromHex(c.PrivateKey)
}

// SDKConfig converts the settings into an Instance configuration. A
// configured private key becomes the signer provider.
func (c *Config) SDKConfig() (fhevm.Config, error) {
	cfg := fhevm.Config{
		ChainID:        c.ChainID,
		GatewayURL:     c.GatewayURL,
		PublicKey:      c.PublicKey,
		KMSVerifierURL: c.KMSVerifierURL,
		RequestTimeout: c.RequestTimeout,
	}
	if c.ACLAddress != "" {
		cfg.ACLAddress = common.HexToAddress(c.ACLAddress)
	}
	if c.KMSVerifierAddress != "" {
		cfg.KMSVerifierAddress = common.HexToAddress(c.KMSVerifierAddress)
	}

	s, err := c.Signer()
	if err != nil {
		return fhevm.Config{}, fmt.Errorf("invalid %s: %w", PrivateKeyKey, err)
	}
	if s != nil {
		cfg.Provider = signer.NewKeyProvider(s)
	}
	return cfg, nil
}
