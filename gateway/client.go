// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway talks to the FHEVM gateway: the service that publishes the
// network public key and routes decryption requests to the KMS.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

const (
	PublicKeyPath  = "/public-key"
	DecryptionPath = "/decryption"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	// DefaultBaseURL is the gateway used when none is configured; the chain id
	// is appended as the last path element.
	DefaultBaseURL = "https://gateway.zama.ai"

	maxResponseBytes = 16 << 20
)

var (
	ErrUnexpectedStatus = errors.New("unexpected gateway status")
	ErrMalformedBody    = errors.New("malformed gateway response")
	ErrEmptyPublicKey   = errors.New("gateway returned an empty public key")
)

// DefaultURL returns the gateway URL derived from a chain id.
func DefaultURL(chainID uint64) string {
	return DefaultBaseURL + "/" + strconv.FormatUint(chainID, 10)
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// DecryptionRequest identifies a handle to reveal on behalf of a user.
type DecryptionRequest struct {
	ContractAddress common.Address
	Handle          fhe.Handle
	UserAddress     common.Address
}

// ID deterministically identifies the request triple.
func (r DecryptionRequest) ID() ids.ID {
	id, _ := ids.ToID(common.Keccak256(r.ContractAddress.Bytes(), r.Handle[:], r.UserAddress.Bytes()))
	return id
}

type decryptionRequestBody struct {
	RequestID       string `json:"requestId"`
	ContractAddress string `json:"contractAddress"`
	Handle          string `json:"handle"`
	UserAddress     string `json:"userAddress"`
}

type DecryptionResponse struct {
	// Value is the decimal plaintext.
	Value string `json:"value"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Client is an HTTP client for one gateway.
type Client struct {
	baseURL string
	http    *http.Client
	log     log.Logger
}

// NewClient returns a client for the gateway rooted at [baseURL]. A nil
// [httpClient] uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		log:     logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPublicKey retrieves the network public key.
func (c *Client) FetchPublicKey(ctx context.Context) (string, error) {
	var resp PublicKeyResponse
	if err := c.do(ctx, http.MethodGet, PublicKeyPath, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch public key from gateway: %w", err)
	}
	if resp.PublicKey == "" {
		return "", ErrEmptyPublicKey
	}
	return resp.PublicKey, nil
}

// RequestDecryption asks the gateway to reveal the value behind a handle.
func (c *Client) RequestDecryption(ctx context.Context, req DecryptionRequest) (*uint256.Int, error) {
	body := decryptionRequestBody{
		RequestID:       req.ID().String(),
		ContractAddress: req.ContractAddress.Hex(),
		Handle:          req.Handle.Hex(),
		UserAddress:     req.UserAddress.Hex(),
	}
	var resp DecryptionResponse
	if err := c.do(ctx, http.MethodPost, DecryptionPath, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to request decryption: %w", err)
	}
	value, err := uint256.FromDecimal(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: value %q: %v", ErrMalformedBody, resp.Value, err)
	}
	return value, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("invalid gateway url %q: %w", c.baseURL, err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("gateway request",
		log.String("method", method),
		log.String("url", endpoint),
		log.String("requestID", requestID),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}
