// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhevm is a client SDK for FHEVM networks. An Instance owns an FHE
// runtime and exposes typed encryption, encrypted contract inputs,
// permissions and decryption on top of it.
//
//	inst, err := fhevm.New(ctx, fhevm.Config{ChainID: 11155111}, fhevm.WithRuntime(bootstrap))
//	if err != nil {
//		return err
//	}
//	ct, err := inst.Encrypt().Uint8(ctx, 42)
package fhevm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/log"
	"golang.org/x/sync/singleflight"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
	"github.com/luxfi/fhevm-sdk/gateway"
)

const initKey = "init"

// Instance is the entry point to one FHEVM network. Encrypt, Decrypt and
// Contract operations require a successful Init.
type Instance struct {
	config    Config
	log       log.Logger
	metrics   *Metrics
	keys      *PublicKeyCache
	gateway   *gateway.Client
	bootstrap fhe.Bootstrap

	initGroup singleflight.Group
	ready     atomic.Bool

	lock      sync.RWMutex
	runtime   fhe.Runtime
	publicKey string

	encrypt  *EncryptionModule
	decrypt  *DecryptionModule
	contract *ContractModule
}

func newInstance(cfg Config, o *options) *Instance {
	i := &Instance{
		config:    cfg,
		log:       o.log,
		metrics:   o.metrics,
		keys:      o.keys,
		gateway:   gateway.NewClient(cfg.Gateway(), o.httpClient, o.log),
		bootstrap: o.bootstrap,
	}
	i.encrypt = &EncryptionModule{inst: i}
	i.decrypt = &DecryptionModule{inst: i}
	i.contract = &ContractModule{inst: i}
	return i
}

// Init resolves the public key, bootstraps the runtime and marks the
// Instance ready. It is idempotent, and concurrent calls share a single
// bootstrap that is bounded by RequestTimeout rather than by any one
// caller's context. On failure the Instance stays uninitialized and Init may
// be called again.
func (i *Instance) Init(ctx context.Context) error {
	if i.ready.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return initError(err, "initialization canceled")
	}

	ch := i.initGroup.DoChan(initKey, func() (interface{}, error) {
		initCtx, cancel := i.withTimeout(context.WithoutCancel(ctx))
		defer cancel()
		return nil, i.init(initCtx)
	})
	select {
	case <-ctx.Done():
		return initError(ctx.Err(), "initialization canceled")
	case res := <-ch:
		return res.Err
	}
}

func (i *Instance) init(ctx context.Context) error {
	if i.ready.Load() {
		return nil
	}
	start := time.Now()

	if err := i.config.Validate(); err != nil {
		return initError(err, "invalid configuration")
	}
	if i.bootstrap == nil {
		return initError(ErrNoRuntime, "failed to initialize FHEVM")
	}

	publicKey, err := i.resolvePublicKey(ctx)
	if err != nil {
		return initError(err, "failed to resolve public key")
	}

	rt, err := i.bootstrap(ctx, fhe.RuntimeConfig{
		ChainID:            i.config.ChainID,
		PublicKey:          publicKey,
		GatewayURL:         i.gateway.BaseURL(),
		KMSVerifierURL:     i.config.KMSVerifierURL,
		ACLAddress:         i.config.ACLAddress,
		KMSVerifierAddress: i.config.KMSVerifierAddress,
	})
	if err != nil {
		return initError(err, "failed to initialize FHEVM")
	}
	if rt == nil {
		return initError(ErrNoRuntime, "failed to initialize FHEVM")
	}

	i.lock.Lock()
	i.runtime = rt
	i.publicKey = publicKey
	i.lock.Unlock()
	i.ready.Store(true)

	latency := time.Since(start)
	i.metrics.initLatencyMS.Set(float64(latency.Milliseconds()))
	i.log.Info("FHEVM SDK initialized",
		log.Uint64("chainID", i.config.ChainID),
		log.String("gateway", i.gateway.BaseURL()),
		log.Stringer("latency", latency),
	)
	return nil
}

func (i *Instance) resolvePublicKey(ctx context.Context) (string, error) {
	if i.config.PublicKey != "" {
		return i.config.PublicKey, nil
	}

	key, cached, err := i.keys.Get(ctx, i.config.ChainID, func(ctx context.Context) (string, error) {
		ctx, cancel := i.withTimeout(ctx)
		defer cancel()
		return i.gateway.FetchPublicKey(ctx)
	})
	result := "miss"
	if cached {
		result = "hit"
	}
	i.metrics.publicKeyCacheLookup.WithLabelValues(result).Inc()
	return key, err
}

// IsReady reports whether Init has completed. It never blocks.
func (i *Instance) IsReady() bool {
	return i.ready.Load()
}

// Config returns a copy of the configuration.
func (i *Instance) Config() Config {
	return i.config
}

// Runtime returns the underlying runtime, or nil before Init.
func (i *Instance) Runtime() fhe.Runtime {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.runtime
}

// PublicKey returns the network public key in use, or "" before Init.
func (i *Instance) PublicKey() string {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.publicKey
}

func (i *Instance) Encrypt() *EncryptionModule {
	return i.encrypt
}

func (i *Instance) Decrypt() *DecryptionModule {
	return i.decrypt
}

func (i *Instance) Contract() *ContractModule {
	return i.contract
}

// ensureReady returns the runtime and public key, or an initialization error if
// Init has not completed.
func (i *Instance) ensureReady() (fhe.Runtime, string, error) {
	if !i.ready.Load() {
		return nil, "", initError(ErrNotInitialized, "")
	}
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.runtime, i.publicKey, nil
}

func (i *Instance) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.config.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.config.RequestTimeout)
}
