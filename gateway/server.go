// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

// Decrypter reveals the plaintext behind a handle.
type Decrypter interface {
	Reveal(ctx context.Context, contract common.Address, handle fhe.Handle, user common.Address) (*uint256.Int, error)
}

// Server is a development gateway serving the public key and decryption
// routes on top of a local runtime.
type Server struct {
	publicKey string
	decrypter Decrypter
	log       log.Logger
}

func NewServer(publicKey string, decrypter Decrypter, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Server{
		publicKey: publicKey,
		decrypter: decrypter,
		log:       logger,
	}
}

// Handler returns the gateway routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PublicKeyPath, s.handlePublicKey)
	mux.HandleFunc(DecryptionPath, s.handleDecryption)
	return mux
}

func (s *Server) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, PublicKeyResponse{PublicKey: s.publicKey})
}

func (s *Server) handleDecryption(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decryptionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := "Could not decode request body"
		s.log.Warn(msg, log.Err(err))
		s.writeJSONError(w, http.StatusBadRequest, msg)
		return
	}
	if !common.IsHexAddress(req.ContractAddress) || !common.IsHexAddress(req.UserAddress) {
		s.writeJSONError(w, http.StatusBadRequest, "invalid address")
		return
	}
	handle, err := fhe.ParseHandle(req.Handle)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid handle")
		return
	}

	value, err := s.decrypter.Reveal(
		r.Context(),
		common.HexToAddress(req.ContractAddress),
		handle,
		common.HexToAddress(req.UserAddress),
	)
	if err != nil {
		s.log.Info("decryption refused",
			log.String("requestID", req.RequestID),
			log.String("handle", req.Handle),
			log.Err(err),
		)
		s.writeJSONError(w, http.StatusForbidden, err.Error())
		return
	}

	s.log.Debug("decryption served",
		log.String("requestID", req.RequestID),
		log.String("requestHeaderID", r.Header.Get(RequestIDHeader)),
	)
	s.writeJSON(w, http.StatusOK, DecryptionResponse{Value: value.Dec()})
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		msg := "Error marshalling JSON response"
		s.log.Error(msg, log.Err(err))
		resp = []byte(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(resp); err != nil {
		s.log.Error("Error writing response", log.Err(err))
	}
}
