package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
	"github.com/luxfi/fhevm-sdk/crypto/fhe/local"
)

var (
	testContract = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testUser     = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestDefaultURL(t *testing.T) {
	require.Equal(t, "https://gateway.zama.ai/11155111", DefaultURL(11155111))
}

func TestFetchPublicKey(t *testing.T) {
	require := require.New(t)

	var requestIDs atomic.Int32
	srv := NewServer("0xdeadbeef", nil, nil)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(RequestIDHeader) != "" {
			requestIDs.Add(1)
		}
		srv.Handler().ServeHTTP(w, r)
	}))
	defer ts.Close()

	pk, err := NewClient(ts.URL, ts.Client(), nil).FetchPublicKey(context.Background())
	require.NoError(err)
	require.Equal("0xdeadbeef", pk)
	require.Equal(int32(1), requestIDs.Load())
}

func TestFetchPublicKeyFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"boom"}`,
			wantErr: ErrUnexpectedStatus,
		},
		{
			name:    "not found without body",
			status:  http.StatusNotFound,
			wantErr: ErrUnexpectedStatus,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"publicKey":`,
			wantErr: ErrMalformedBody,
		},
		{
			name:    "empty key",
			status:  http.StatusOK,
			body:    `{"publicKey":""}`,
			wantErr: ErrEmptyPublicKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewClient(ts.URL, ts.Client(), nil).FetchPublicKey(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchPublicKeyCanceled(t *testing.T) {
	ts := httptest.NewServer(NewServer("pk", nil, nil).Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(ts.URL, ts.Client(), nil).FetchPublicKey(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequestDecryption(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	rt, err := local.New(fhe.RuntimeConfig{ChainID: 1, PublicKey: "0xdeadbeef"})
	require.NoError(err)
	in := rt.NewInput(testContract, testUser)
	require.NoError(in.Add(fhe.NewUint(fhe.TypeUint64, 1234567)))
	res, err := in.Encrypt(ctx)
	require.NoError(err)

	ts := httptest.NewServer(NewServer("0xdeadbeef", rt, nil).Handler())
	defer ts.Close()
	client := NewClient(ts.URL, ts.Client(), nil)

	value, err := client.RequestDecryption(ctx, DecryptionRequest{
		ContractAddress: testContract,
		Handle:          res.Handles[0],
		UserAddress:     testUser,
	})
	require.NoError(err)
	require.Equal(uint64(1234567), value.Uint64())

	_, err = client.RequestDecryption(ctx, DecryptionRequest{
		ContractAddress: testContract,
		Handle:          fhe.Handle{0x09},
		UserAddress:     testUser,
	})
	require.ErrorIs(err, ErrUnexpectedStatus)
}

func TestDecryptionRequestID(t *testing.T) {
	a := DecryptionRequest{ContractAddress: testContract, Handle: fhe.Handle{1}, UserAddress: testUser}
	b := a
	require.Equal(t, a.ID(), b.ID())

	b.UserAddress = testContract
	require.NotEqual(t, a.ID(), b.ID())
}

func TestServerRejectsBadRequests(t *testing.T) {
	ts := httptest.NewServer(NewServer("pk", nil, nil).Handler())
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+DecryptionPath, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = ts.Client().Post(ts.URL+PublicKeyPath, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	ts := httptest.NewServer(HealthHandler("gateway", func(context.Context) error {
		if !healthy.Load() {
			return ErrEmptyPublicKey
		}
		return nil
	}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	healthy.Store(false)
	resp, err = ts.Client().Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
