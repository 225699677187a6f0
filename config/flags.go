// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// AddFlags registers every configuration key on [fs].
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Specifies the JSON config file")
	fs.Bool(QuietKey, false, "Disables logging")
	fs.Uint64(ChainIDKey, DefaultChainID, "Chain id of the FHEVM network")
	fs.String(GatewayURLKey, "", "Gateway URL, derived from the chain id when empty")
	fs.String(PublicKeyKey, "", "Network public key, fetched from the gateway when empty")
	fs.String(KMSVerifierURLKey, "", "KMS verifier URL")
	fs.String(ACLAddressKey, "", "ACL contract address")
	fs.String(KMSVerifierAddressKey, "", "KMS verifier contract address")
	fs.String(PrivateKeyKey, "", "Hex private key used to sign permissions")
	fs.Duration(RequestTimeoutKey, DefaultRequestTimeout, "Timeout of each gateway call")
	fs.Uint16(APIPortKey, defaultAPIPort, "Port of the development gateway")
}

// DisplayUsageText writes the environment variable and config file
// conventions to [w].
func DisplayUsageText(w io.Writer) {
	fmt.Fprintf(w,
		"Every flag can also be set with the %s_ prefixed environment variable,\n"+
			"for example %s_CHAIN_ID=9000, or in the file given by --%s.\n",
		EnvPrefix, EnvPrefix, ConfigFileKey,
	)
}
