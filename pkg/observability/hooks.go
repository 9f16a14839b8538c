// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about document transforms, image encodes, and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so pkg/pipeline and
// pkg/compress can emit events without importing a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetImageHooks(&myImageHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnTransformStart(ctx, "format", len(input))
//	// ... parse, transform, serialize ...
//	observability.Pipeline().OnTransformComplete(ctx, "format", len(output), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the document transformation pipeline.
type PipelineHooks interface {
	OnTransformStart(ctx context.Context, op string, inputSize int)
	OnTransformComplete(ctx context.Context, op string, outputSize int, duration time.Duration, err error)
}

// =============================================================================
// Image Hooks
// =============================================================================

// ImageHooks receives events from the image recompression engine.
type ImageHooks interface {
	// OnDecodeComplete records the one-time decode of a new source.
	OnDecodeComplete(ctx context.Context, format string, width, height int, duration time.Duration, err error)

	// OnEncodeStart records an encode that survived the debounce window.
	OnEncodeStart(ctx context.Context, format string, quality int)

	// OnEncodeComplete records an encode whose result was applied.
	OnEncodeComplete(ctx context.Context, format string, quality, size int, duration time.Duration, err error)

	// OnEncodeDiscarded records an encode superseded by a newer request.
	OnEncodeDiscarded(ctx context.Context, format string, quality int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnTransformStart(context.Context, string, int) {}

func (NoopPipelineHooks) OnTransformComplete(context.Context, string, int, time.Duration, error) {}

// NoopImageHooks is a no-op implementation of ImageHooks.
type NoopImageHooks struct{}

func (NoopImageHooks) OnDecodeComplete(context.Context, string, int, int, time.Duration, error) {}

func (NoopImageHooks) OnEncodeStart(context.Context, string, int) {}

func (NoopImageHooks) OnEncodeComplete(context.Context, string, int, int, time.Duration, error) {}

func (NoopImageHooks) OnEncodeDiscarded(context.Context, string, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	imageHooks    ImageHooks    = NoopImageHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any transforms run.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetImageHooks registers custom image engine hooks.
func SetImageHooks(h ImageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		imageHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Image returns the registered image engine hooks.
func Image() ImageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return imageHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	imageHooks = NoopImageHooks{}
	cacheHooks = NoopCacheHooks{}
}
