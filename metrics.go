// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type Metrics struct {
	encryptCount         *prometheus.CounterVec
	inputCount           *prometheus.CounterVec
	inputHandles         prometheus.Histogram
	decryptCount         *prometheus.CounterVec
	publicKeyCacheLookup *prometheus.CounterVec
	initLatencyMS        prometheus.Gauge
}

// NewMetrics registers the SDK collectors on [registerer]. Collectors already
// registered by an earlier call are reused, so instances created with the same
// registerer report into the same series.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		encryptCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhevm_encrypt_count",
				Help: "Number of single-value encryptions",
			},
			[]string{"type", "outcome"},
		),
		inputCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhevm_input_count",
				Help: "Number of finalized encrypted inputs",
			},
			[]string{"outcome"},
		),
		inputHandles: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fhevm_input_handles",
				Help:    "Number of handles per encrypted input",
				Buckets: prometheus.ExponentialBuckets(1, 2, 9),
			},
		),
		decryptCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhevm_decrypt_count",
				Help: "Number of decryption and re-encryption requests",
			},
			[]string{"method", "outcome"},
		),
		publicKeyCacheLookup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fhevm_public_key_cache_lookup_count",
				Help: "Public key cache lookups by result",
			},
			[]string{"result"},
		),
		initLatencyMS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fhevm_init_latency_ms",
				Help: "Latency of the last successful initialization in milliseconds",
			},
		),
	}

	m.encryptCount = register(registerer, m.encryptCount)
	m.inputCount = register(registerer, m.inputCount)
	m.inputHandles = register(registerer, m.inputHandles)
	m.decryptCount = register(registerer, m.decryptCount)
	m.publicKeyCacheLookup = register(registerer, m.publicKeyCacheLookup)
	m.initLatencyMS = register(registerer, m.initLatencyMS)

	return &m
}

func register[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	err := registerer.Register(c)
	if err == nil {
		return c
	}
	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
			return existing
		}
	}
	panic(err)
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}
