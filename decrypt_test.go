package fhevm

import (
	"context"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
	"github.com/luxfi/fhevm-sdk/crypto/fhe/local"
	"github.com/luxfi/fhevm-sdk/gateway"
	"github.com/luxfi/fhevm-sdk/signer"
)

func newTestSigner(t *testing.T) *signer.KeySigner {
	t.Helper()
	s, err := signer.NewKeySignerFromHex(testKeyHex)
	require.NoError(t, err)
	return s
}

func newTestProvider(t *testing.T) *signer.KeyProvider {
	t.Helper()
	return signer.NewKeyProvider(newTestSigner(t))
}

// fixedProvider answers every user with the same signer.
type fixedProvider struct {
	signer signer.TypedDataSigner
}

func (p fixedProvider) Signer(context.Context, common.Address) (signer.TypedDataSigner, error) {
	return p.signer, nil
}

func encryptFor(t *testing.T, inst *Instance, contract, user common.Address, v uint64) fhe.Handle {
	t.Helper()
	in, err := inst.Contract().CreateInput(contract, user)
	require.NoError(t, err)
	res, err := in.Add64(v).Encrypt(context.Background())
	require.NoError(t, err)
	return res.Handles[0]
}

// Re-encryption without a signer fails as a decryption error before any
// request leaves the process.
func TestEndToEndReencryptWithoutSigner(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t)
	inst := newReadyInstance(t, g, g.config())
	handle := encryptFor(t, inst, contractX, userY, 1)
	before := g.requests.Load()

	_, err := inst.Decrypt().Reencrypt(context.Background(), handle, contractX, userY)
	require.True(IsDecryptionError(err))
	require.ErrorIs(err, ErrNoSigner)
	require.Contains(err.Error(), "signer")
	require.Equal(before, g.requests.Load())

	var sdkErr *Error
	require.ErrorAs(err, &sdkErr)
	require.Equal("DECRYPTION_ERROR", sdkErr.Code())
}

func TestReencrypt(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t)
	user := newTestSigner(t).Address()
	cfg := g.config()
	cfg.Provider = newTestProvider(t)
	inst := newReadyInstance(t, g, cfg)
	ctx := context.Background()

	handle := encryptFor(t, inst, contractX, user, 1234)
	v, err := inst.Decrypt().Reencrypt(ctx, handle, contractX, user)
	require.NoError(err)
	require.Equal(uint64(1234), v.Uint64())

	// not on the ACL of another contract
	_, err = inst.Decrypt().Reencrypt(ctx, handle, contractZ, user)
	require.True(IsDecryptionError(err))
	require.ErrorIs(err, local.ErrNotAllowed)

	require.NoError(g.runtime.Allow(handle, contractZ))
	v, err = inst.Decrypt().Reencrypt(ctx, handle, contractZ, user)
	require.NoError(err)
	require.Equal(uint64(1234), v.Uint64())
}

func TestReencryptUnknownUser(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t)
	cfg := g.config()
	cfg.Provider = newTestProvider(t)
	inst := newReadyInstance(t, g, cfg)

	handle := encryptFor(t, inst, contractX, userY, 1)
	_, err := inst.Decrypt().Reencrypt(context.Background(), handle, contractX, userY)
	require.True(IsDecryptionError(err))
	require.ErrorIs(err, signer.ErrUnknownAccount)
}

func TestGeneratePermission(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t)
	user := newTestSigner(t).Address()
	cfg := g.config()
	cfg.Provider = newTestProvider(t)
	inst := newReadyInstance(t, g, cfg)
	ctx := context.Background()

	sigX, err := inst.Contract().GeneratePermission(ctx, contractX, user)
	require.NoError(err)
	sigZ, err := inst.Contract().GeneratePermission(ctx, contractZ, user)
	require.NoError(err)
	require.NotEqual(sigX, sigZ)

	raw, err := hexutil.Decode(sigX)
	require.NoError(err)
	permission := signer.NewPermission(testChainID, contractX, signer.PublicKeyBytes(testPublicKey))
	require.NoError(signer.Verify(permission, raw, user))

	other := signer.NewPermission(testChainID, contractZ, signer.PublicKeyBytes(testPublicKey))
	require.ErrorIs(signer.Verify(other, raw, user), signer.ErrSignatureMismatch)

	again, err := inst.Contract().GeneratePermission(ctx, contractX, user)
	require.NoError(err)
	require.Equal(sigX, again)
}

func TestGeneratePermissionFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider signer.Provider
		user     common.Address
		wantErr  error
	}{
		{
			name:    "no provider",
			user:    userY,
			wantErr: ErrNoSigner,
		},
		{
			name:     "unknown account",
			provider: signer.NewKeyProvider(),
			user:     userY,
			wantErr:  signer.ErrUnknownAccount,
		},
		{
			name:     "signed by another account",
			provider: fixedProvider{signer: newTestSigner(t)},
			user:     userY,
			wantErr:  ErrSignatureMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			g := newTestGateway(t)
			cfg := g.config()
			cfg.Provider = tt.provider
			inst := newReadyInstance(t, g, cfg)

			sig, err := inst.Contract().GeneratePermission(context.Background(), contractX, tt.user)
			require.Empty(sig)
			require.ErrorIs(err, tt.wantErr)
			require.True(IsDecryptionError(err))
		})
	}
}

func TestDecryptionRequest(t *testing.T) {
	require := require.New(t)

	g := newTestGateway(t)
	inst := newReadyInstance(t, g, g.config())
	ctx := context.Background()

	handle := encryptFor(t, inst, contractX, userY, 77)
	v, err := inst.Decrypt().Request(ctx, DecryptionRequest{
		ContractAddress: contractX,
		Handle:          handle,
		UserAddress:     userY,
	})
	require.NoError(err)
	require.Equal(uint64(77), v.Uint64())

	_, err = inst.Decrypt().Request(ctx, DecryptionRequest{
		ContractAddress: contractX,
		Handle:          handle,
		UserAddress:     contractZ,
	})
	require.True(IsDecryptionError(err))
	require.ErrorIs(err, gateway.ErrUnexpectedStatus)

	_, err = inst.Decrypt().Request(ctx, DecryptionRequest{
		ContractAddress: contractX,
		Handle:          fhe.Handle{0x01},
		UserAddress:     userY,
	})
	require.True(IsDecryptionError(err))
}
