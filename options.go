// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"net/http"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/fhevm-sdk/crypto/fhe"
)

// Option configures the collaborators of an Instance.
type Option func(*options)

type options struct {
	log        log.Logger
	bootstrap  fhe.Bootstrap
	keys       *PublicKeyCache
	httpClient *http.Client
	registerer prometheus.Registerer
	metrics    *Metrics
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.log = logger
	}
}

// WithRuntime sets how the FHE runtime is created during Init. Init fails
// without one.
func WithRuntime(bootstrap fhe.Bootstrap) Option {
	return func(o *options) {
		o.bootstrap = bootstrap
	}
}

// WithPublicKeyCache replaces DefaultPublicKeyCache.
func WithPublicKeyCache(keys *PublicKeyCache) Option {
	return func(o *options) {
		o.keys = keys
	}
}

// WithHTTPClient sets the client used to reach the gateway.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithRegisterer reports SDK metrics on [registerer]. Reusing a registerer
// across Factories shares the same collectors.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = registerer
	}
}

// WithMetrics shares already registered metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = log.NewNoOpLogger()
	}
	if o.keys == nil {
		o.keys = DefaultPublicKeyCache
	}
	if o.metrics == nil {
		registerer := o.registerer
		if registerer == nil {
			registerer = prometheus.NewRegistry()
		}
		o.metrics = NewMetrics(registerer)
	}
	return o
}
