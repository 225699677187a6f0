// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
	"github.com/luxfi/fhevm-sdk/gateway"
)

const (
	methodRequest   = "request"
	methodReencrypt = "reencrypt"
)

// DecryptionRequest identifies a handle to reveal on behalf of a user.
type DecryptionRequest = gateway.DecryptionRequest

// DecryptionModule reveals values behind handles.
type DecryptionModule struct {
	inst *Instance
}

// Request asks the gateway to reveal the value behind req.Handle.
func (m *DecryptionModule) Request(ctx context.Context, req DecryptionRequest) (*uint256.Int, error) {
	if _, _, err := m.inst.ensureReady(); err != nil {
		return nil, err
	}

	ctx, cancel := m.inst.withTimeout(ctx)
	defer cancel()

	value, err := m.inst.gateway.RequestDecryption(ctx, req)
	m.inst.metrics.decryptCount.WithLabelValues(methodRequest, outcome(err)).Inc()
	if err != nil {
		m.inst.log.Debug("decryption request failed",
			log.Stringer("requestID", req.ID()),
			log.Stringer("contract", req.ContractAddress),
			log.Stringer("handle", req.Handle),
			log.Err(err),
		)
		return nil, decryptionError(err, "failed to decrypt handle %s", req.Handle)
	}
	return value, nil
}

// Reencrypt has [user] sign a permission for [contract] and asks the runtime
// to re-encrypt [handle] under it. A missing signer provider fails before any
// signature or network request.
func (m *DecryptionModule) Reencrypt(ctx context.Context, handle fhe.Handle, contract, user common.Address) (*uint256.Int, error) {
	rt, publicKey, err := m.inst.ensureReady()
	if err != nil {
		return nil, err
	}

	value, err := m.reencrypt(ctx, rt, publicKey, handle, contract, user)
	m.inst.metrics.decryptCount.WithLabelValues(methodReencrypt, outcome(err)).Inc()
	return value, err
}

func (m *DecryptionModule) reencrypt(
	ctx context.Context,
	rt fhe.Runtime,
	publicKey string,
	handle fhe.Handle,
	contract common.Address,
	user common.Address,
) (*uint256.Int, error) {
	signature, err := m.inst.permission(ctx, publicKey, contract, user)
	if err != nil {
		return nil, err
	}

	value, err := rt.Reencrypt(ctx, fhe.ReencryptRequest{
		Handle:          handle,
		PublicKey:       publicKey,
		Signature:       signature,
		ContractAddress: contract,
		UserAddress:     user,
	})
	if err != nil {
		m.inst.log.Debug("re-encryption failed",
			log.Stringer("handle", handle),
			log.Stringer("contract", contract),
			log.Stringer("user", user),
			log.Err(err),
		)
		return nil, decryptionError(err, "failed to re-encrypt handle %s", handle)
	}
	return value, nil
}
