// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"time"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/fhevm-sdk/gateway"
	"github.com/luxfi/fhevm-sdk/signer"
)

// Config describes the network an Instance talks to.
type Config struct {
	// ChainID identifies the network.
	ChainID uint64

	// Provider resolves the signer acting for a user. Required for
	// permissions and re-encryption.
	Provider signer.Provider

	// GatewayURL overrides the gateway derived from ChainID.
	GatewayURL string

	// PublicKey skips the gateway fetch when set.
	PublicKey string

	// KMSVerifierURL is passed to the runtime with the verifier contract
	// address.
	KMSVerifierURL string

	ACLAddress         common.Address
	KMSVerifierAddress common.Address

	// RequestTimeout bounds each gateway call and signature request. Zero
	// means no timeout beyond the caller's context.
	RequestTimeout time.Duration
}

// Validate checks the fields every Instance needs.
func (c Config) Validate() error {
	if c.ChainID == 0 {
		return ErrInvalidChainID
	}
	return nil
}

// Gateway returns the configured gateway URL or the one derived from the
// chain id.
func (c Config) Gateway() string {
	if c.GatewayURL != "" {
		return c.GatewayURL
	}
	return gateway.DefaultURL(c.ChainID)
}
