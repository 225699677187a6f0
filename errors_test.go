package fhevm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	errCause := errors.New("cause")

	tests := []struct {
		name     string
		err      error
		kind     error
		code     string
		notKinds []error
	}{
		{
			name:     "initialization",
			err:      initError(errCause, "failed to initialize %s", "runtime"),
			kind:     ErrInitialization,
			code:     "INIT_ERROR",
			notKinds: []error{ErrEncryption, ErrDecryption},
		},
		{
			name:     "encryption",
			err:      encryptionError(errCause, "failed to encrypt"),
			kind:     ErrEncryption,
			code:     "ENCRYPTION_ERROR",
			notKinds: []error{ErrInitialization, ErrDecryption},
		},
		{
			name:     "decryption",
			err:      decryptionError(errCause, "failed to decrypt"),
			kind:     ErrDecryption,
			code:     "DECRYPTION_ERROR",
			notKinds: []error{ErrInitialization, ErrEncryption},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			wrapped := fmt.Errorf("outer: %w", tt.err)
			require.ErrorIs(wrapped, tt.kind)
			require.ErrorIs(wrapped, errCause)
			for _, other := range tt.notKinds {
				require.NotErrorIs(wrapped, other)
			}

			var sdkErr *Error
			require.ErrorAs(wrapped, &sdkErr)
			require.Equal(tt.code, sdkErr.Code())
			require.Contains(sdkErr.Error(), "cause")
		})
	}
}

func TestErrorMessage(t *testing.T) {
	require := require.New(t)

	require.Equal("fhevm initialization error", (&Error{Kind: KindInitialization}).Error())
	require.Equal(
		"fhevm encryption error: failed to encrypt uint8",
		(&Error{Kind: KindEncryption, Message: "failed to encrypt uint8"}).Error(),
	)
	require.Equal(
		"fhevm decryption error: "+ErrNoSigner.Error(),
		decryptionError(ErrNoSigner, "").Error(),
	)
	require.Equal("FHEVM_ERROR", Kind(0).Code())
}
