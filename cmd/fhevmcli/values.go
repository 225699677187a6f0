// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common/hexutil"

	fhevm "github.com/luxfi/fhevm-sdk"
	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

// parseValue splits a "type:value" argument such as "uint32:7".
func parseValue(s string) (fhe.Type, string, error) {
	name, raw, ok := strings.Cut(s, ":")
	if !ok || raw == "" {
		return 0, "", fmt.Errorf("value %q must have the form type:value", s)
	}
	typ, err := fhe.ParseType(name)
	if err != nil {
		return 0, "", err
	}
	return typ, raw, nil
}

func encryptValue(ctx context.Context, enc *fhevm.EncryptionModule, typ fhe.Type, raw string) (*fhe.Ciphertext, error) {
	switch typ {
	case fhe.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		return enc.Bool(ctx, b)
	case fhe.TypeUint8, fhe.TypeUint16, fhe.TypeUint32, fhe.TypeUint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		switch typ {
		case fhe.TypeUint8:
			return enc.Uint8(ctx, uint8(n))
		case fhe.TypeUint16:
			return enc.Uint16(ctx, uint16(n))
		case fhe.TypeUint32:
			return enc.Uint32(ctx, uint32(n))
		default:
			return enc.Uint64(ctx, n)
		}
	case fhe.TypeUint128, fhe.TypeUint256:
		v, err := uint256.FromDecimal(raw)
		if err != nil {
			return nil, err
		}
		if typ == fhe.TypeUint128 {
			return enc.Uint128(ctx, v)
		}
		return enc.Uint256(ctx, v)
	case fhe.TypeAddress:
		return enc.Address(ctx, raw)
	case fhe.TypeBytes:
		data, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		return enc.Bytes(ctx, data)
	default:
		return nil, fmt.Errorf("%w: %s", fhe.ErrUnsupportedType, typ)
	}
}

func addValue(in *fhevm.EncryptedInput, typ fhe.Type, raw string) error {
	switch typ {
	case fhe.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		in.AddBool(b)
	case fhe.TypeUint8, fhe.TypeUint16, fhe.TypeUint32, fhe.TypeUint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return err
		}
		switch typ {
		case fhe.TypeUint8:
			in.Add8(uint8(n))
		case fhe.TypeUint16:
			in.Add16(uint16(n))
		case fhe.TypeUint32:
			in.Add32(uint32(n))
		default:
			in.Add64(n)
		}
	case fhe.TypeUint128, fhe.TypeUint256:
		v, err := uint256.FromDecimal(raw)
		if err != nil {
			return err
		}
		if typ == fhe.TypeUint128 {
			in.Add128(v)
		} else {
			in.Add256(v)
		}
	case fhe.TypeAddress:
		in.AddAddress(raw)
	case fhe.TypeBytes:
		data, err := hexutil.Decode(raw)
		if err != nil {
			return err
		}
		in.AddBytes(data)
	default:
		return fmt.Errorf("%w: %s", fhe.ErrUnsupportedType, typ)
	}
	return in.Err()
}
