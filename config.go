package longscroll

import (
	"time"

	"github.com/gridscroll/longscroll/internal/rowindex"
	"github.com/gridscroll/longscroll/internal/scheduler"
)

// Config holds LongScroll's tunables: row default height, scheduler
// thresholds, and the initial block size. Mirrors the teacher's
// defaults-object-overridden-by-functional-options layering
// (config/defaults.go + config/types.go) without the multi-file
// config-migration machinery that version carries, which a library
// package has no use for.
type Config struct {
	DefaultRowHeight float64
	SchedulerThresh  scheduler.Thresholds
	InitialBlockSize int
	MinBlockSize     int
	FrameInterval    time.Duration
	CornerSpeed      float64
	BufferWidthBase  float64
}

// DefaultConfig matches spec.md §3/§4's stated defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRowHeight: rowindex.DefaultHeight,
		SchedulerThresh:  scheduler.DefaultThresholds(),
		InitialBlockSize: 20,
		MinBlockSize:     5,
		FrameInterval:    16 * time.Millisecond,
		CornerSpeed:      5,
		BufferWidthBase:  2000,
	}
}

// Option mutates a Config being built by New.
type Option func(*Config)

// WithDefaultRowHeight overrides the per-instance default row height.
func WithDefaultRowHeight(h float64) Option {
	return func(c *Config) { c.DefaultRowHeight = h }
}

// WithSchedulerThresholds overrides the load-factor ramp thresholds.
func WithSchedulerThresholds(t scheduler.Thresholds) Option {
	return func(c *Config) { c.SchedulerThresh = t }
}

// WithInitialBlockSize overrides the starting preferredBlockSize.
func WithInitialBlockSize(n int) Option {
	return func(c *Config) { c.InitialBlockSize = n }
}

// WithFrameInterval overrides the render loop's tick interval.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Config) { c.FrameInterval = d }
}

func buildConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
