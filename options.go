/**
 * Functional options for the erasure-coding façade
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

import (
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// options holds the tunables an Option can override. Callers never see
// this type directly; they build a []Option and pass it to New.
type options struct {
	strategy      Strategy
	maxGoroutines int
	minSplitSize  int
}

// Option overrides one processing parameter of a ReedSolomon instance,
// in the functional-options style.
type Option func(*options)

var (
	defaultOptionsOnce sync.Once
	cachedDefaults      options
)

// defaultOptionValues returns the process-wide defaults, computed once
// from CPU topology via github.com/klauspost/cpuid/v2. Large L1 data
// caches favor the table multiply strategy (spec's own empirical call);
// a small detected L1 data cache falls back to the exp/log strategy. The
// goroutine cap is four per logical core, or 1 on a single-core machine.
func defaultOptionValues() options {
	defaultOptionsOnce.Do(func() {
		cachedDefaults = options{
			strategy:      DefaultStrategy,
			maxGoroutines: 50,
			minSplitSize:  512,
		}
		if cpuid.CPU.LogicalCores <= 1 {
			cachedDefaults.maxGoroutines = 1
		} else {
			cachedDefaults.maxGoroutines = cpuid.CPU.LogicalCores * 4
		}
		// The L1 data cache figure from cpuid.CPU.Cache.L1D is in bytes,
		// or -1/0 if undetected. Below ~16KiB of L1D, the per-row
		// MUL_TABLE hoist in the table strategy (256 bytes per row,
		// times however many (input, output) pairs are live) starts
		// evicting the input/output shard window; fall back to exp/log.
		if l1d := cpuid.CPU.Cache.L1D; l1d > 0 && l1d < 16*1024 {
			cachedDefaults.strategy = Strategy{Order: LoopInputOutputByte, Multiply: MultiplyExp}
		}
	})
	return cachedDefaults
}

// WithStrategy selects a specific coding-loop strategy instead of the
// CPU-informed default.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithMaxGoroutines caps the number of goroutines used to split a single
// encode/verify/decode call's byte range. n <= 0 restores the default.
func WithMaxGoroutines(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = defaultOptionValues().maxGoroutines
		}
		o.maxGoroutines = n
	}
}

// WithMinSplitSize sets the minimum number of bytes given to each
// goroutine when a call is split. n <= 0 restores the default.
func WithMinSplitSize(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = defaultOptionValues().minSplitSize
		}
		o.minSplitSize = n
	}
}

func resolveOptions(opts []Option) options {
	o := defaultOptionValues()
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
