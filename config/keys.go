// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"

	// Environment variables are FHEVM_ followed by the upper-cased key with
	// hyphens replaced by underscores.
	EnvPrefix = "FHEVM"

	// Top-level configuration keys
	QuietKey              = "quiet"
	ChainIDKey            = "chain-id"
	GatewayURLKey         = "gateway-url"
	PublicKeyKey          = "public-key"
	KMSVerifierURLKey     = "kms-verifier-url"
	ACLAddressKey         = "acl-address"
	KMSVerifierAddressKey = "kms-verifier-address"
	PrivateKeyKey         = "private-key"
	RequestTimeoutKey     = "request-timeout"
	APIPortKey            = "api-port"
)
