// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package signer builds and signs the EIP-712 permissions that authorize
// re-encryption of a handle for one contract and user.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/common/math"
	"github.com/luxfi/geth/signer/core/apitypes"
)

const (
	DomainName    = "Authorization token"
	DomainVersion = "1"
	PrimaryType   = "Reencrypt"

	signatureLen = crypto.SignatureLength
)

var (
	_ TypedDataSigner = (*KeySigner)(nil)
	_ Provider        = (*KeyProvider)(nil)

	ErrUnknownAccount    = errors.New("no signer for account")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrSignatureMismatch = errors.New("signature does not recover to expected account")
)

// TypedDataSigner produces EIP-712 signatures for a single account.
type TypedDataSigner interface {
	Address() common.Address
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}

// Provider resolves the signer acting for a user address.
type Provider interface {
	Signer(ctx context.Context, user common.Address) (TypedDataSigner, error)
}

// NewPermission returns the typed data a user signs to authorize
// re-encryption under [publicKey] through [contract] on [chainID].
func NewPermission(chainID uint64, contract common.Address, publicKey []byte) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			PrimaryType: []apitypes.Type{
				{Name: "publicKey", Type: "bytes"},
			},
		},
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(chainID)),
			VerifyingContract: contract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey": hexutil.Bytes(common.CopyBytes(publicKey)),
		},
	}
}

// PublicKeyBytes returns the byte form of a public key as carried in a
// permission. 0x-prefixed keys are hex decoded, anything else is taken
// verbatim.
func PublicKeyBytes(publicKey string) []byte {
	if strings.HasPrefix(publicKey, "0x") || strings.HasPrefix(publicKey, "0X") {
		if b, err := hexutil.Decode(publicKey); err == nil {
			return b
		}
	}
	return []byte(publicKey)
}

// Hash returns the EIP-712 digest of [typedData].
func Hash(typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return hash, nil
}

// Recover returns the account that produced [sig] over [typedData].
func Recover(typedData apitypes.TypedData, sig []byte) (common.Address, error) {
	if len(sig) != signatureLen {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	hash, err := Hash(typedData)
	if err != nil {
		return common.Address{}, err
	}

	rsv := common.CopyBytes(sig)
	if rsv[crypto.RecoveryIDOffset] >= 27 {
		rsv[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return common.PubkeyToAddress(*pub), nil
}

// Verify checks that [sig] over [typedData] was produced by [expected].
func Verify(typedData apitypes.TypedData, sig []byte, expected common.Address) error {
	got, err := Recover(typedData, sig)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("%w: got %s, want %s", ErrSignatureMismatch, got, expected)
	}
	return nil
}

// KeySigner signs with a local secp256k1 key
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeySigner creates a new local signer
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:  key,
		addr: common.PubkeyToAddress(key.PublicKey),
	}
}

// NewKeySignerFromHex parses a hex private key, with or without 0x.
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeySigner(key), nil
}

func (s *KeySigner) Address() common.Address {
	return s.addr
}

// SignTypedData returns a 65 byte [R || S || V] signature with V in {27, 28}.
func (s *KeySigner) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := Hash(typedData)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// KeyProvider serves a fixed set of local signers keyed by address.
type KeyProvider struct {
	signers map[common.Address]*KeySigner
}

func NewKeyProvider(signers ...*KeySigner) *KeyProvider {
	p := &KeyProvider{
		signers: make(map[common.Address]*KeySigner, len(signers)),
	}
	for _, s := range signers {
		p.signers[s.Address()] = s
	}
	return p
}

func (p *KeyProvider) Signer(_ context.Context, user common.Address) (TypedDataSigner, error) {
	s, ok := p.signers[user]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, user)
	}
	return s, nil
}
