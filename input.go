// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

// EncryptedInput accumulates typed values for one contract call made by one
// user. Every Add method appends to the same accumulator and returns the
// receiver, so
//
//	in.Add8(5).Add16(1000).AddBool(true)
//
// and three separate statements build the same input. The first invalid
// value is remembered and reported by Err and Encrypt. EncryptedInput is
// safe for concurrent use.
type EncryptedInput struct {
	inst     *Instance
	contract common.Address
	user     common.Address

	lock   sync.Mutex
	values []fhe.Plaintext
	err    error
	result *fhe.InputResult
}

func newEncryptedInput(inst *Instance, contract, user common.Address) *EncryptedInput {
	return &EncryptedInput{
		inst:     inst,
		contract: contract,
		user:     user,
	}
}

func (in *EncryptedInput) Contract() common.Address {
	return in.contract
}

func (in *EncryptedInput) User() common.Address {
	return in.user
}

// Len returns the number of values added so far.
func (in *EncryptedInput) Len() int {
	in.lock.Lock()
	defer in.lock.Unlock()
	return len(in.values)
}

// Err returns the first error recorded while adding values.
func (in *EncryptedInput) Err() error {
	in.lock.Lock()
	defer in.lock.Unlock()
	return in.err
}

func (in *EncryptedInput) Add8(v uint8) *EncryptedInput {
	return in.add(fhe.NewUint(fhe.TypeUint8, uint64(v)), nil)
}

func (in *EncryptedInput) Add16(v uint16) *EncryptedInput {
	return in.add(fhe.NewUint(fhe.TypeUint16, uint64(v)), nil)
}

func (in *EncryptedInput) Add32(v uint32) *EncryptedInput {
	return in.add(fhe.NewUint(fhe.TypeUint32, uint64(v)), nil)
}

func (in *EncryptedInput) Add64(v uint64) *EncryptedInput {
	return in.add(fhe.NewUint(fhe.TypeUint64, v), nil)
}

func (in *EncryptedInput) Add128(v *uint256.Int) *EncryptedInput {
	pt, err := bigPlaintext(fhe.TypeUint128, v)()
	return in.add(pt, err)
}

func (in *EncryptedInput) Add256(v *uint256.Int) *EncryptedInput {
	pt, err := bigPlaintext(fhe.TypeUint256, v)()
	return in.add(pt, err)
}

func (in *EncryptedInput) AddBool(v bool) *EncryptedInput {
	return in.add(fhe.NewBool(v), nil)
}

// AddAddress adds a 0x-prefixed, 40 hex character address.
func (in *EncryptedInput) AddAddress(addr string) *EncryptedInput {
	a, err := ParseAddress(addr)
	return in.add(fhe.NewAddress(a), err)
}

func (in *EncryptedInput) AddBytes(data []byte) *EncryptedInput {
	return in.add(fhe.NewBytes(data), nil)
}

func (in *EncryptedInput) add(pt fhe.Plaintext, err error) *EncryptedInput {
	in.lock.Lock()
	defer in.lock.Unlock()

	switch {
	case in.err != nil:
	case in.result != nil:
		in.err = ErrInputFinalized
	case err != nil:
		in.err = fmt.Errorf("value %d: %w", len(in.values), err)
	default:
		in.values = append(in.values, pt)
	}
	return in
}

// Encrypt sends the accumulated values to the runtime and returns one handle
// per value, in the order they were added, together with a proof covering the
// whole batch. The result is computed once; later calls return it again
// unless a value was added after finalization.
func (in *EncryptedInput) Encrypt(ctx context.Context) (*fhe.InputResult, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if in.err != nil {
		return nil, encryptionError(in.err, "invalid input for contract %s user %s", in.contract, in.user)
	}
	if in.result != nil {
		return copyResult(in.result), nil
	}

	rt, _, err := in.inst.ensureReady()
	if err != nil {
		return nil, err
	}
	if len(in.values) == 0 {
		return nil, encryptionError(ErrEmptyInput, "invalid input for contract %s user %s", in.contract, in.user)
	}

	res, err := in.finalize(ctx, rt)
	in.inst.metrics.inputCount.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		in.inst.log.Debug("input encryption failed",
			log.Stringer("contract", in.contract),
			log.Stringer("user", in.user),
			log.Int("values", len(in.values)),
			log.Err(err),
		)
		return nil, encryptionError(err, "failed to encrypt input for contract %s user %s", in.contract, in.user)
	}
	in.inst.metrics.inputHandles.Observe(float64(len(res.Handles)))

	in.result = res
	return copyResult(res), nil
}

func (in *EncryptedInput) finalize(ctx context.Context, rt fhe.Runtime) (*fhe.InputResult, error) {
	builder := rt.NewInput(in.contract, in.user)
	for i, pt := range in.values {
		if err := builder.Add(pt); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}
	res, err := builder.Encrypt(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Handles) != len(in.values) {
		return nil, fmt.Errorf("runtime returned %d handles for %d values", len(res.Handles), len(in.values))
	}
	if res.InputProof == "" {
		return nil, fmt.Errorf("runtime returned an empty input proof")
	}
	return res, nil
}

func copyResult(res *fhe.InputResult) *fhe.InputResult {
	return &fhe.InputResult{
		Handles:    append([]fhe.Handle(nil), res.Handles...),
		InputProof: res.InputProof,
	}
}
