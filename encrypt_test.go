package fhevm

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

func TestEncryptTypes(t *testing.T) {
	g := newTestGateway(t)
	inst := newReadyInstance(t, g, g.config())
	enc := inst.Encrypt()
	ctx := context.Background()

	maxUint128 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
	maxUint256 := new(uint256.Int).SetAllOne()

	tests := []struct {
		name      string
		encrypt   func() (*fhe.Ciphertext, error)
		wantType  fhe.Type
		wantValue *uint256.Int
		wantData  []byte
	}{
		{
			name:      "bool",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Bool(ctx, true) },
			wantType:  fhe.TypeBool,
			wantValue: uint256.NewInt(1),
		},
		{
			name:      "uint8",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Uint8(ctx, 255) },
			wantType:  fhe.TypeUint8,
			wantValue: uint256.NewInt(255),
		},
		{
			name:      "uint16",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Uint16(ctx, 500) },
			wantType:  fhe.TypeUint16,
			wantValue: uint256.NewInt(500),
		},
		{
			name:      "uint32",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Uint32(ctx, 100000) },
			wantType:  fhe.TypeUint32,
			wantValue: uint256.NewInt(100000),
		},
		{
			name:      "uint64",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Uint64(ctx, 1<<63) },
			wantType:  fhe.TypeUint64,
			wantValue: uint256.NewInt(1 << 63),
		},
		{
			name:      "uint128",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Uint128(ctx, maxUint128) },
			wantType:  fhe.TypeUint128,
			wantValue: maxUint128,
		},
		{
			name:      "uint256",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Uint256(ctx, maxUint256) },
			wantType:  fhe.TypeUint256,
			wantValue: maxUint256,
		},
		{
			name:      "address",
			encrypt:   func() (*fhe.Ciphertext, error) { return enc.Address(ctx, contractZ.Hex()) },
			wantType:  fhe.TypeAddress,
			wantValue: new(uint256.Int).SetBytes(contractZ.Bytes()),
		},
		{
			name:     "bytes",
			encrypt:  func() (*fhe.Ciphertext, error) { return enc.Bytes(ctx, []byte("hello")) },
			wantType: fhe.TypeBytes,
			wantData: []byte("hello"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			ct, err := tt.encrypt()
			require.NoError(err)
			require.Equal(tt.wantType, ct.Type)
			require.NotEmpty(ct.Bytes())

			pt, err := g.runtime.Open(ct)
			require.NoError(err)
			require.Equal(tt.wantType, pt.Type)
			if tt.wantData != nil {
				require.Equal(tt.wantData, pt.Data)
				return
			}
			require.Equal(tt.wantValue.Hex(), pt.Value.Hex())
		})
	}
}

func TestEncryptFailures(t *testing.T) {
	g := newTestGateway(t)
	inst := newReadyInstance(t, g, g.config())
	enc := inst.Encrypt()
	ctx := context.Background()

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	tests := []struct {
		name    string
		encrypt func() (*fhe.Ciphertext, error)
		wantErr error
	}{
		{
			name:    "nil uint128",
			encrypt: func() (*fhe.Ciphertext, error) { return enc.Uint128(ctx, nil) },
			wantErr: ErrNilValue,
		},
		{
			name: "uint128 overflow",
			encrypt: func() (*fhe.Ciphertext, error) {
				return enc.Uint128(ctx, new(uint256.Int).Lsh(uint256.NewInt(1), 128))
			},
			wantErr: fhe.ErrValueOutOfRange,
		},
		{
			name:    "nil uint256",
			encrypt: func() (*fhe.Ciphertext, error) { return enc.Uint256(ctx, nil) },
			wantErr: ErrNilValue,
		},
		{
			name:    "address not hex",
			encrypt: func() (*fhe.Ciphertext, error) { return enc.Address(ctx, "0xzz11111111111111111111111111111111111111") },
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "address without prefix",
			encrypt: func() (*fhe.Ciphertext, error) { return enc.Address(ctx, "001111111111111111111111111111111111111111") },
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "canceled",
			encrypt: func() (*fhe.Ciphertext, error) { return enc.Uint8(canceled, 1) },
			wantErr: context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			ct, err := tt.encrypt()
			require.Nil(ct)
			require.ErrorIs(err, tt.wantErr)
			require.True(IsEncryptionError(err))
			require.False(IsDecryptionError(err))
		})
	}
}

func TestEncryptCopiesInput(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t)
	inst := newReadyInstance(t, g, g.config())

	v := uint256.NewInt(7)
	ct, err := inst.Encrypt().Uint128(context.Background(), v)
	require.NoError(err)
	v.SetUint64(8)

	pt, err := g.runtime.Open(ct)
	require.NoError(err)
	require.Equal(uint64(7), pt.Value.Uint64())
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    common.Address
		wantErr bool
	}{
		{in: "0x1111111111111111111111111111111111111111", want: contractX},
		{in: "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", want: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")},
		{in: "", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "0X1111111111111111111111111111111111111111", wantErr: true},
		{in: "0x11111111111111111111111111111111111111111", wantErr: true},
		{in: "0xg111111111111111111111111111111111111111", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
