// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm-sdk/signer"
)

// ContractModule builds inputs and permissions for contract calls.
type ContractModule struct {
	inst *Instance
}

// CreateInput returns an empty input for a call to [contract] made by [user].
func (m *ContractModule) CreateInput(contract, user common.Address) (*EncryptedInput, error) {
	if _, _, err := m.inst.ensureReady(); err != nil {
		return nil, err
	}
	return newEncryptedInput(m.inst, contract, user), nil
}

// GeneratePermission has [user] sign an EIP-712 permission scoped to
// [contract] over the instance public key, and returns the 0x-prefixed
// signature.
func (m *ContractModule) GeneratePermission(ctx context.Context, contract, user common.Address) (string, error) {
	_, publicKey, err := m.inst.ensureReady()
	if err != nil {
		return "", err
	}
	return m.inst.permission(ctx, publicKey, contract, user)
}

func (i *Instance) permission(ctx context.Context, publicKey string, contract, user common.Address) (string, error) {
	if i.config.Provider == nil {
		return "", decryptionError(ErrNoSigner, "cannot sign permission for user %s", user)
	}

	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	s, err := i.config.Provider.Signer(ctx, user)
	if err != nil {
		return "", decryptionError(err, "no signer for user %s", user)
	}

	typedData := signer.NewPermission(i.config.ChainID, contract, signer.PublicKeyBytes(publicKey))
	sig, err := s.SignTypedData(ctx, typedData)
	if err != nil {
		return "", decryptionError(err, "failed to sign permission for contract %s", contract)
	}
	if err := signer.Verify(typedData, sig, user); err != nil {
		i.log.Warn("permission signed by unexpected account",
			log.Stringer("contract", contract),
			log.Stringer("user", user),
			log.Err(err),
		)
		if errors.Is(err, signer.ErrSignatureMismatch) {
			err = errors.Join(ErrSignatureMismatch, err)
		}
		return "", decryptionError(err, "invalid permission for contract %s", contract)
	}
	return hexutil.Encode(sig), nil
}
