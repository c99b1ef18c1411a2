// Package parallel splits index ranges across goroutines for the tensor
// kernels that are large enough to benefit.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls when and how wide work is split.
type Config struct {
	Enabled      bool
	NumWorkers   int
	MinChunkSize int // ranges shorter than this run inline
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// ElementwiseConfig is DefaultConfig with a chunk size suited to cheap
// per-element functions.
func ElementwiseConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1 << 14
	return cfg
}

// Sequential never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false}
}

// ForChunks calls f on disjoint [start, end) ranges covering [0, n). It
// returns once every range is done. With parallelism disabled, or n below
// cfg.MinChunkSize, f is called once with [0, n).
func ForChunks(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		f(0, n)
		return
	}
	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			f(start, end)
			return nil
		})
	}
	_ = g.Wait()
}

// For calls f(i) once for every i in [0, n). f must only write state owned by i.
func For(n int, f func(i int), cfg Config) {
	ForChunks(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// ForBatch calls f for every (batch, channel) pair, as used by pooling.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
