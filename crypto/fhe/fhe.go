// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe defines the contract between the SDK and an FHE runtime: the
// closed set of encrypted types, plaintexts, ciphertexts, handles and the
// runtime entry points the SDK drives.
package fhe

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
)

var (
	// ErrInvalidCiphertext is returned when ciphertext is malformed
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrUnsupportedType is returned for a type tag outside the closed set
	ErrUnsupportedType = errors.New("unsupported encrypted type")

	// ErrValueOutOfRange is returned when a plaintext does not fit its type
	ErrValueOutOfRange = errors.New("value out of range for type")
)

// Type is an encrypted value type. The numeric values match the type byte
// embedded in FHEVM handles.
type Type uint8

const (
	TypeBool    Type = 0
	TypeUint8   Type = 2
	TypeUint16  Type = 3
	TypeUint32  Type = 4
	TypeUint64  Type = 5
	TypeUint128 Type = 6
	TypeAddress Type = 7
	TypeUint256 Type = 8
	TypeBytes   Type = 9
)

// Types lists every supported type.
var Types = []Type{
	TypeBool,
	TypeUint8,
	TypeUint16,
	TypeUint32,
	TypeUint64,
	TypeUint128,
	TypeAddress,
	TypeUint256,
	TypeBytes,
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	switch t {
	case TypeBool, TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeUint128, TypeAddress, TypeUint256, TypeBytes:
		return true
	default:
		return false
	}
}

// Bits returns the plaintext width of t. Bytes has no fixed width and
// returns 0.
func (t Type) Bits() int {
	switch t {
	case TypeBool:
		return 1
	case TypeUint8:
		return 8
	case TypeUint16:
		return 16
	case TypeUint32:
		return 32
	case TypeUint64:
		return 64
	case TypeUint128:
		return 128
	case TypeAddress:
		return 160
	case TypeUint256:
		return 256
	default:
		return 0
	}
}

// Max returns the largest plaintext representable by t, or nil for Bytes and
// unknown types.
func (t Type) Max() *uint256.Int {
	bits := t.Bits()
	if bits == 0 {
		return nil
	}
	if bits == 256 {
		return new(uint256.Int).SetAllOne()
	}
	max := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bits))
	return max.SubUint64(max, 1)
}

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeUint128:
		return "uint128"
	case TypeAddress:
		return "address"
	case TypeUint256:
		return "uint256"
	case TypeBytes:
		return "bytes"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseType maps a type name such as "uint32" back to its Type.
func ParseType(name string) (Type, error) {
	for _, t := range Types {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Plaintext is a typed value handed to the runtime for encryption. Numeric,
// bool and address types carry Value; Bytes carries Data.
type Plaintext struct {
	Type  Type
	Value *uint256.Int
	Data  []byte
}

func NewUint(t Type, v uint64) Plaintext {
	return Plaintext{Type: t, Value: uint256.NewInt(v)}
}

func NewBool(b bool) Plaintext {
	v := uint256.NewInt(0)
	if b {
		v.SetOne()
	}
	return Plaintext{Type: TypeBool, Value: v}
}

func NewAddress(addr common.Address) Plaintext {
	return Plaintext{Type: TypeAddress, Value: new(uint256.Int).SetBytes(addr.Bytes())}
}

func NewBytes(data []byte) Plaintext {
	return Plaintext{Type: TypeBytes, Data: common.CopyBytes(data)}
}

// Validate checks that the plaintext is well formed and fits its type.
func (p Plaintext) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, p.Type)
	}
	if p.Type == TypeBytes {
		if p.Value != nil {
			return fmt.Errorf("%w: bytes plaintext carries a numeric value", ErrValueOutOfRange)
		}
		return nil
	}
	if p.Value == nil {
		return fmt.Errorf("%w: missing %s value", ErrValueOutOfRange, p.Type)
	}
	if p.Value.Gt(p.Type.Max()) {
		return fmt.Errorf("%w: %s does not fit %s", ErrValueOutOfRange, p.Value.Dec(), p.Type)
	}
	return nil
}

// Ciphertext is an encrypted value tagged with the type it encodes.
type Ciphertext struct {
	Type Type
	Data []byte
}

// Bytes returns the serialized ciphertext
func (c *Ciphertext) Bytes() []byte {
	return c.Data
}

// HandleLen is the size of a handle in bytes.
const HandleLen = 32

// Handle is an opaque reference to an encrypted value held by the runtime or
// the chain.
type Handle [HandleLen]byte

// HandleFromBig converts the uint256 form used by contracts into a Handle.
func HandleFromBig(b *big.Int) (Handle, error) {
	var h Handle
	if b == nil || b.Sign() < 0 || b.BitLen() > 8*HandleLen {
		return h, fmt.Errorf("%w: handle does not fit in 32 bytes", ErrInvalidCiphertext)
	}
	b.FillBytes(h[:])
	return h, nil
}

// ParseHandle decodes a 0x-prefixed 32-byte hex handle.
func ParseHandle(s string) (Handle, error) {
	var h Handle
	raw, err := hexutil.Decode(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) != HandleLen {
		return h, fmt.Errorf("%w: handle is %d bytes", ErrInvalidCiphertext, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

func (h Handle) Big() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

func (h Handle) Hex() string {
	return hexutil.Encode(h[:])
}

func (h Handle) String() string {
	return h.Hex()
}

// Index returns the position of the handle within its input batch.
func (h Handle) Index() uint8 {
	return h[21]
}

// Type returns the encrypted type embedded in the handle.
func (h Handle) Type() Type {
	return Type(h[30])
}

// InputResult is the outcome of finalizing an encrypted input batch.
type InputResult struct {
	// Handles holds one handle per added value, in insertion order.
	Handles []Handle
	// InputProof is a 0x-prefixed hex proof binding the handles to the
	// contract and user the batch was built for.
	InputProof string
}

// RuntimeConfig is what the SDK hands to the runtime at bootstrap.
type RuntimeConfig struct {
	ChainID            uint64
	PublicKey          string
	GatewayURL         string
	KMSVerifierURL     string
	ACLAddress         common.Address
	KMSVerifierAddress common.Address
}

// ReencryptRequest carries everything the runtime needs to re-encrypt a
// handle for a user.
type ReencryptRequest struct {
	Handle          Handle
	PublicKey       string
	Signature       string
	ContractAddress common.Address
	UserAddress     common.Address
}

// Runtime is an FHE runtime the SDK drives.
type Runtime interface {
	// Encrypt encrypts a single plaintext under the network public key.
	Encrypt(ctx context.Context, pt Plaintext) ([]byte, error)

	// NewInput starts a batch of values bound to one contract and user.
	NewInput(contract, user common.Address) InputBuilder

	// Reencrypt reveals the value behind a handle to the user the request was
	// signed for.
	Reencrypt(ctx context.Context, req ReencryptRequest) (*uint256.Int, error)
}

// InputBuilder accumulates plaintexts for one contract call.
type InputBuilder interface {
	Add(pt Plaintext) error
	Encrypt(ctx context.Context) (*InputResult, error)
}

// Bootstrap creates a ready runtime from its configuration.
type Bootstrap func(ctx context.Context, cfg RuntimeConfig) (Runtime, error)
