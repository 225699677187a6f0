// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import "context"

// Factory creates Instances that share one set of options, including the
// public key cache and metrics.
type Factory struct {
	opts *options
}

func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: newOptions(opts)}
}

// New creates an Instance for [cfg] and initializes it.
func (f *Factory) New(ctx context.Context, cfg Config) (*Instance, error) {
	inst := f.NewUninitialized(cfg)
	if err := inst.Init(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// NewUninitialized creates an Instance for [cfg] without initializing it.
func (f *Factory) NewUninitialized(cfg Config) *Instance {
	return newInstance(cfg, f.opts)
}

// New creates and initializes an Instance with a one-off Factory.
func New(ctx context.Context, cfg Config, opts ...Option) (*Instance, error) {
	return NewFactory(opts...).New(ctx, cfg)
}

// NewUninitialized creates an Instance with a one-off Factory.
func NewUninitialized(cfg Config, opts ...Option) *Instance {
	return NewFactory(opts...).NewUninitialized(cfg)
}
