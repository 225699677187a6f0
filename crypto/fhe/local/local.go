// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package local is an in-process FHE runtime for development networks and
// tests. Plaintexts are sealed with XChaCha20-Poly1305 under a key derived
// from the network public key; there is no homomorphic evaluation. Handles,
// input proofs and the ACL follow the FHEVM layout so contract-side code can
// be exercised end to end.
package local

import (
	"bytes"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/math/set"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

const (
	// MaxInputValues bounds the number of values in one input batch; the
	// index of a value is stored in a single handle byte.
	MaxInputValues = 255

	// MaxInputBits bounds the combined plaintext width of one input batch.
	MaxInputBits = 2048

	handleVersion = 0
)

var (
	_ fhe.Runtime      = (*Runtime)(nil)
	_ fhe.InputBuilder = (*input)(nil)

	ErrEmptyPublicKey    = errors.New("empty public key")
	ErrPublicKeyMismatch = errors.New("public key does not match the runtime key")
	ErrMissingSignature  = errors.New("missing signature")
	ErrTooManyValues     = errors.New("too many values in input")
	ErrInputTooLarge     = errors.New("input exceeds maximum bit width")
	ErrInputFinalized    = errors.New("input already encrypted")
	ErrUnknownHandle     = errors.New("unknown handle")
	ErrNotAllowed        = errors.New("address not allowed to access handle")
)

// Runtime implements fhe.Runtime in memory.
type Runtime struct {
	cfg  fhe.RuntimeConfig
	aead cipher.AEAD

	lock    sync.RWMutex
	values  map[fhe.Handle]fhe.Plaintext
	allowed map[fhe.Handle]set.Set[common.Address]
}

// Bootstrap is an fhe.Bootstrap creating a local runtime.
func Bootstrap(_ context.Context, cfg fhe.RuntimeConfig) (fhe.Runtime, error) {
	return New(cfg)
}

func New(cfg fhe.RuntimeConfig) (*Runtime, error) {
	if cfg.PublicKey == "" {
		return nil, ErrEmptyPublicKey
	}
	aead, err := chacha20poly1305.NewX(common.Keccak256([]byte(cfg.PublicKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Runtime{
		cfg:     cfg,
		aead:    aead,
		values:  make(map[fhe.Handle]fhe.Plaintext),
		allowed: make(map[fhe.Handle]set.Set[common.Address]),
	}, nil
}

// Config returns the configuration the runtime was bootstrapped with.
func (r *Runtime) Config() fhe.RuntimeConfig {
	return r.cfg
}

func (r *Runtime) Encrypt(ctx context.Context, pt fhe.Plaintext) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := pt.Validate(); err != nil {
		return nil, err
	}
	return r.seal(pt, r.chainIDBytes())
}

// Open recovers the plaintext of a ciphertext produced by Encrypt.
func (r *Runtime) Open(ct *fhe.Ciphertext) (fhe.Plaintext, error) {
	pt, err := r.open(ct.Data, r.chainIDBytes())
	if err != nil {
		return fhe.Plaintext{}, err
	}
	if pt.Type != ct.Type {
		return fhe.Plaintext{}, fmt.Errorf("%w: sealed %s, tagged %s", fhe.ErrInvalidCiphertext, pt.Type, ct.Type)
	}
	return pt, nil
}

func (r *Runtime) NewInput(contract, user common.Address) fhe.InputBuilder {
	return &input{
		runtime:  r,
		contract: contract,
		user:     user,
	}
}

func (r *Runtime) Reencrypt(ctx context.Context, req fhe.ReencryptRequest) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Signature == "" {
		return nil, ErrMissingSignature
	}
	if req.PublicKey != r.cfg.PublicKey {
		return nil, ErrPublicKeyMismatch
	}
	return r.Reveal(ctx, req.ContractAddress, req.Handle, req.UserAddress)
}

// Reveal returns the plaintext behind [handle] when both [contract] and
// [user] are on its ACL.
func (r *Runtime) Reveal(ctx context.Context, contract common.Address, handle fhe.Handle, user common.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.lock.RLock()
	pt, ok := r.values[handle]
	acl := r.allowed[handle]
	r.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	if !acl.Contains(contract) {
		return nil, fmt.Errorf("%w: contract %s", ErrNotAllowed, contract)
	}
	if !acl.Contains(user) {
		return nil, fmt.Errorf("%w: user %s", ErrNotAllowed, user)
	}

	if pt.Type == fhe.TypeBytes {
		if len(pt.Data) > 32 {
			return nil, fmt.Errorf("%w: %d byte value", fhe.ErrUnsupportedType, len(pt.Data))
		}
		return new(uint256.Int).SetBytes(pt.Data), nil
	}
	return new(uint256.Int).Set(pt.Value), nil
}

// Allow adds [addrs] to the ACL of [handle].
func (r *Runtime) Allow(handle fhe.Handle, addrs ...common.Address) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	acl, ok := r.allowed[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	acl.Add(addrs...)
	r.allowed[handle] = acl
	return nil
}

func (r *Runtime) register(handles []fhe.Handle, values []fhe.Plaintext, addrs ...common.Address) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i, h := range handles {
		r.values[h] = values[i]
		r.allowed[h] = set.Of(addrs...)
	}
}

func (r *Runtime) chainIDBytes() []byte {
	return binary.BigEndian.AppendUint64(nil, r.cfg.ChainID)
}

// seal encodes [pt] as type || payload and encrypts it with a random nonce,
// returning nonce || ciphertext.
func (r *Runtime) seal(pt fhe.Plaintext, ad []byte) ([]byte, error) {
	msg := []byte{byte(pt.Type)}
	if pt.Type == fhe.TypeBytes {
		msg = append(msg, pt.Data...)
	} else {
		word := pt.Value.Bytes32()
		msg = append(msg, word[:]...)
	}

	nonce := make([]byte, r.aead.NonceSize(), r.aead.NonceSize()+len(msg)+r.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}
	return r.aead.Seal(nonce, nonce, msg, ad), nil
}

func (r *Runtime) open(data []byte, ad []byte) (fhe.Plaintext, error) {
	if len(data) < r.aead.NonceSize()+r.aead.Overhead()+1 {
		return fhe.Plaintext{}, fhe.ErrInvalidCiphertext
	}
	nonce, sealed := data[:r.aead.NonceSize()], data[r.aead.NonceSize():]
	msg, err := r.aead.Open(nil, nonce, sealed, ad)
	if err != nil {
		return fhe.Plaintext{}, fmt.Errorf("%w: %v", fhe.ErrInvalidCiphertext, err)
	}

	typ := fhe.Type(msg[0])
	if typ == fhe.TypeBytes {
		return fhe.NewBytes(msg[1:]), nil
	}
	if len(msg) != 33 {
		return fhe.Plaintext{}, fhe.ErrInvalidCiphertext
	}
	return fhe.Plaintext{Type: typ, Value: new(uint256.Int).SetBytes(msg[1:])}, nil
}

type input struct {
	runtime  *Runtime
	contract common.Address
	user     common.Address

	lock   sync.Mutex
	values []fhe.Plaintext
	bits   int
	done   bool
}

func (in *input) Add(pt fhe.Plaintext) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	if in.done {
		return ErrInputFinalized
	}
	if err := pt.Validate(); err != nil {
		return err
	}
	if len(in.values) >= MaxInputValues {
		return fmt.Errorf("%w: limit is %d", ErrTooManyValues, MaxInputValues)
	}
	bits := pt.Type.Bits()
	if pt.Type == fhe.TypeBytes {
		bits = 8 * len(pt.Data)
	}
	if in.bits+bits > MaxInputBits {
		return fmt.Errorf("%w: %d bits, limit is %d", ErrInputTooLarge, in.bits+bits, MaxInputBits)
	}
	in.values = append(in.values, pt)
	in.bits += bits
	return nil
}

func (in *input) Encrypt(ctx context.Context) (*fhe.InputResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in.lock.Lock()
	defer in.lock.Unlock()

	if in.done {
		return nil, ErrInputFinalized
	}

	r := in.runtime
	ad := append(in.contract.Bytes(), in.user.Bytes()...)
	var blob []byte
	for _, pt := range in.values {
		ct, err := r.seal(pt, ad)
		if err != nil {
			return nil, err
		}
		blob = append(blob, ct...)
	}
	blobHash := common.Keccak256(blob)
	chainID := r.chainIDBytes()

	handles := make([]fhe.Handle, len(in.values))
	for i, pt := range in.values {
		digest := common.Keccak256(blobHash, []byte{byte(i)}, in.contract.Bytes(), in.user.Bytes(), chainID)
		var h fhe.Handle
		copy(h[:21], digest)
		h[21] = byte(i)
		copy(h[22:30], chainID)
		h[30] = byte(pt.Type)
		h[31] = handleVersion
		handles[i] = h
	}

	proof := []byte{byte(len(handles))}
	for _, h := range handles {
		proof = append(proof, h[:]...)
	}
	proof = append(proof, blobHash...)
	proof = append(proof, common.Keccak256(in.contract.Bytes(), in.user.Bytes(), proof)...)

	r.register(handles, in.values, in.contract, in.user)
	in.done = true

	return &fhe.InputResult{
		Handles:    handles,
		InputProof: hexutil.Encode(proof),
	}, nil
}

// VerifyProof checks that [proof] binds [handles] to [contract] and [user].
func VerifyProof(proof string, handles []fhe.Handle, contract, user common.Address) error {
	raw, err := hexutil.Decode(proof)
	if err != nil {
		return fmt.Errorf("invalid proof encoding: %w", err)
	}
	want := 1 + len(handles)*fhe.HandleLen + 2*common.HashLength
	if len(raw) != want || int(raw[0]) != len(handles) {
		return errors.New("proof does not match handle count")
	}
	for i, h := range handles {
		off := 1 + i*fhe.HandleLen
		if !bytes.Equal(raw[off:off+fhe.HandleLen], h[:]) {
			return fmt.Errorf("proof handle %d mismatch", i)
		}
	}
	body := raw[:len(raw)-common.HashLength]
	binding := common.Keccak256(contract.Bytes(), user.Bytes(), body)
	if !bytes.Equal(raw[len(raw)-common.HashLength:], binding) {
		return errors.New("proof is not bound to contract and user")
	}
	return nil
}
