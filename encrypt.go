// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

// EncryptionModule encrypts single typed values under the network key.
// Range checking of 128 and 256 bit values is left to the runtime.
type EncryptionModule struct {
	inst *Instance
}

func (m *EncryptionModule) Uint8(ctx context.Context, v uint8) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeUint8, uintPlaintext(fhe.TypeUint8, uint64(v)))
}

func (m *EncryptionModule) Uint16(ctx context.Context, v uint16) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeUint16, uintPlaintext(fhe.TypeUint16, uint64(v)))
}

func (m *EncryptionModule) Uint32(ctx context.Context, v uint32) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeUint32, uintPlaintext(fhe.TypeUint32, uint64(v)))
}

func (m *EncryptionModule) Uint64(ctx context.Context, v uint64) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeUint64, uintPlaintext(fhe.TypeUint64, v))
}

func (m *EncryptionModule) Uint128(ctx context.Context, v *uint256.Int) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeUint128, bigPlaintext(fhe.TypeUint128, v))
}

func (m *EncryptionModule) Uint256(ctx context.Context, v *uint256.Int) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeUint256, bigPlaintext(fhe.TypeUint256, v))
}

func (m *EncryptionModule) Bool(ctx context.Context, v bool) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeBool, func() (fhe.Plaintext, error) {
		return fhe.NewBool(v), nil
	})
}

// Address encrypts a 0x-prefixed, 40 hex character address.
func (m *EncryptionModule) Address(ctx context.Context, addr string) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeAddress, func() (fhe.Plaintext, error) {
		a, err := ParseAddress(addr)
		if err != nil {
			return fhe.Plaintext{}, err
		}
		return fhe.NewAddress(a), nil
	})
}

func (m *EncryptionModule) Bytes(ctx context.Context, data []byte) (*fhe.Ciphertext, error) {
	return m.encrypt(ctx, fhe.TypeBytes, func() (fhe.Plaintext, error) {
		return fhe.NewBytes(data), nil
	})
}

func (m *EncryptionModule) encrypt(ctx context.Context, typ fhe.Type, plaintext func() (fhe.Plaintext, error)) (*fhe.Ciphertext, error) {
	rt, _, err := m.inst.ensureReady()
	if err != nil {
		return nil, err
	}

	data, err := m.encryptWith(ctx, rt, plaintext)
	m.inst.metrics.encryptCount.WithLabelValues(typ.String(), outcome(err)).Inc()
	if err != nil {
		m.inst.log.Debug("encryption failed",
			log.String("type", typ.String()),
			log.Err(err),
		)
		return nil, encryptionError(err, "failed to encrypt %s", typ)
	}
	return &fhe.Ciphertext{Type: typ, Data: data}, nil
}

func (*EncryptionModule) encryptWith(ctx context.Context, rt fhe.Runtime, plaintext func() (fhe.Plaintext, error)) ([]byte, error) {
	pt, err := plaintext()
	if err != nil {
		return nil, err
	}
	return rt.Encrypt(ctx, pt)
}

func uintPlaintext(typ fhe.Type, v uint64) func() (fhe.Plaintext, error) {
	return func() (fhe.Plaintext, error) {
		return fhe.NewUint(typ, v), nil
	}
}

func bigPlaintext(typ fhe.Type, v *uint256.Int) func() (fhe.Plaintext, error) {
	return func() (fhe.Plaintext, error) {
		if v == nil {
			return fhe.Plaintext{}, ErrNilValue
		}
		return fhe.Plaintext{Type: typ, Value: new(uint256.Int).Set(v)}, nil
	}
}

// ParseAddress parses a 0x-prefixed, 40 hex character address.
func ParseAddress(s string) (common.Address, error) {
	if len(s) != 2+2*common.AddressLength || !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
