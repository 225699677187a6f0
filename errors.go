// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"errors"
	"fmt"
)

// Kind classifies an SDK error.
type Kind uint8

const (
	KindInitialization Kind = iota + 1
	KindEncryption
	KindDecryption
)

// Code returns the stable error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindInitialization:
		return "INIT_ERROR"
	case KindEncryption:
		return "ENCRYPTION_ERROR"
	case KindDecryption:
		return "DECRYPTION_ERROR"
	default:
		return "FHEVM_ERROR"
	}
}

func (k Kind) String() string {
	switch k {
	case KindInitialization:
		return "initialization"
	case KindEncryption:
		return "encryption"
	case KindDecryption:
		return "decryption"
	default:
		return "unknown"
	}
}

var (
	// Kind sentinels, for use with errors.Is.
	ErrInitialization = &Error{Kind: KindInitialization}
	ErrEncryption     = &Error{Kind: KindEncryption}
	ErrDecryption     = &Error{Kind: KindDecryption}

	ErrNotInitialized    = errors.New("FHEVM SDK not initialized, call Init first")
	ErrNoRuntime         = errors.New("no FHE runtime configured")
	ErrNoSigner          = errors.New("signer provider required for permissions")
	ErrInvalidAddress    = errors.New("invalid address, expected 0x followed by 40 hex characters")
	ErrNilValue          = errors.New("nil value")
	ErrEmptyInput        = errors.New("no values added to input")
	ErrInputFinalized    = errors.New("input already encrypted")
	ErrInvalidChainID    = errors.New("chain id must be non-zero")
	ErrSignatureMismatch = errors.New("permission signature does not match user")
)

// Error represents an SDK error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return fmt.Sprintf("fhevm %s error", e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("fhevm %s error: %s", e.Kind, e.Message)
	case e.Message == "":
		return fmt.Sprintf("fhevm %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("fhevm %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the stable error code.
func (e *Error) Code() string {
	return e.Kind.Code()
}

// Is matches any *Error of the same kind when the target is a bare kind
// sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func initError(err error, format string, args ...any) error {
	return &Error{Kind: KindInitialization, Message: fmt.Sprintf(format, args...), Err: err}
}

func encryptionError(err error, format string, args ...any) error {
	return &Error{Kind: KindEncryption, Message: fmt.Sprintf(format, args...), Err: err}
}

func decryptionError(err error, format string, args ...any) error {
	return &Error{Kind: KindDecryption, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsInitializationError reports whether err is an initialization error.
func IsInitializationError(err error) bool {
	return errors.Is(err, ErrInitialization)
}

// IsEncryptionError reports whether err is an encryption error.
func IsEncryptionError(err error) bool {
	return errors.Is(err, ErrEncryption)
}

// IsDecryptionError reports whether err is a decryption error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryption)
}
