package compress

import (
	"context"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/devtoys/pkg/cache"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/observability"
)

// Engine recompresses one source image at a time. It is safe for concurrent
// use.
type Engine struct {
	opts   Options
	logger *log.Logger

	mu       sync.Mutex
	state    State
	params   Params
	source   []byte
	hash     string
	info     SourceInfo
	bitmap   image.Image
	artifact *Artifact
	lastErr  error
	closed   bool

	// Encode cache keys written or read for the current source, and keys
	// of released sources still to be deleted.
	cacheKeys []string
	staleKeys []string

	// epoch identifies the current source; gen identifies the latest
	// scheduled encode. Both only grow.
	epoch  uint64
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc

	// Outgoing mailbox. delivering is set while one goroutine drains it.
	subs       map[uint64]func(Event)
	nextSub    uint64
	pending    []Event
	retired    []*Artifact
	delivering bool
}

// New creates an engine in the Empty state. Invalid options fall back to the
// defaults and are logged.
func New(opts Options) *Engine {
	opts.Params = opts.Params.normalize()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		opts.Params = DefaultParams
		_ = opts.ValidateAndSetDefaults()
		opts.Logger.Warn("invalid image params, using defaults", "error", err)
	}
	return &Engine{
		opts:   opts,
		logger: opts.Logger,
		params: opts.Params,
		subs:   make(map[uint64]func(Event)),
	}
}

// =============================================================================
// Commands
// =============================================================================

// Load replaces the source image. Resources held for the previous source are
// released first, emitting Empty if anything was held. The new source is
// decoded once; on success Decoded is emitted and an encode with the current
// params is scheduled.
//
// If Reset or another Load runs while this source is decoding, the decoded
// bitmap is dropped and Load returns nil.
func (e *Engine) Load(ctx context.Context, src []byte) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errClosed()
	}
	if e.releaseLocked() {
		e.setLocked(Event{State: Empty})
	}
	e.epoch++
	epoch := e.epoch
	data := slices.Clone(src)
	e.mu.Unlock()
	e.deliver()
	e.purgeCache()

	start := time.Now()
	img, format, err := e.opts.Codec.Decode(ctx, data)
	elapsed := time.Since(start)

	var w, h int
	if img != nil {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	observability.Image().OnDecodeComplete(ctx, format, w, h, elapsed, err)

	e.mu.Lock()
	if e.closed || epoch != e.epoch {
		e.mu.Unlock()
		e.logger.Debug("decode superseded", "format", format)
		return nil
	}
	if err != nil {
		if !errors.Is(err, errors.ErrCodeDecode) {
			err = errors.Wrap(errors.ErrCodeDecode, err, "decode image")
		}
		e.lastErr = err
		e.setLocked(Event{State: Error, Err: err})
		e.mu.Unlock()
		e.deliver()
		e.logger.Debug("decode failed", "error", err)
		return err
	}

	e.source = data
	e.hash = cache.Hash(data)
	e.bitmap = img
	e.info = SourceInfo{Format: format, Width: w, Height: h, Size: len(data)}
	e.lastErr = nil
	e.setLocked(Event{State: Decoded, Source: e.info})
	e.scheduleLocked()
	e.mu.Unlock()
	e.deliver()

	e.logger.Debug("source decoded", "format", format, "width", w, "height", h, "bytes", len(data), "duration", elapsed)
	return nil
}

// SetParams changes the encode parameters. When a source is loaded, an
// encode is scheduled after the debounce window; a pending one is
// rescheduled, never stacked. Invalid params are rejected and nothing else
// changes.
func (e *Engine) SetParams(p Params) error {
	p = p.normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed()
	}
	e.params = p
	if e.bitmap != nil {
		e.scheduleLocked()
	}
	return nil
}

// Reset stops any pending or in-flight encode and releases the bitmap, the
// source, the live artifact and the source's encode cache entries. It always
// emits Empty.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.releaseLocked()
	e.epoch++
	e.setLocked(Event{State: Empty})
	e.mu.Unlock()
	e.deliver()
	e.purgeCache()
}

// Close resets the engine and rejects further Load and SetParams calls.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.Reset()
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Params returns the current encode parameters.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Artifact returns the live artifact, or nil.
func (e *Engine) Artifact() *Artifact {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.artifact
}

// Source describes the loaded source. ok is false when nothing is loaded.
func (e *Engine) Source() (info SourceInfo, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info, e.bitmap != nil
}

// Err returns the error of the last failed decode or encode, if the engine is
// in the Error state.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Error {
		return nil
	}
	return e.lastErr
}

// Subscribe registers fn for every event queued after this call. Events are
// delivered in order, one at a time, never while the engine lock is held, so
// fn may call back into the engine. The returned function removes the
// subscription.
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// =============================================================================
// Encoding
// =============================================================================

// scheduleLocked arms the debounce timer for a new generation. mu must be
// held.
func (e *Engine) scheduleLocked() {
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.timer = time.AfterFunc(e.opts.Debounce, func() { e.fire(gen) })
}

// fire runs the encode for gen if it is still the latest request.
func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.bitmap == nil {
		e.mu.Unlock()
		return
	}
	p, img, hash := e.params, e.bitmap, e.hash
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.setLocked(Event{State: Encoding, Params: p, Artifact: e.artifact})
	e.mu.Unlock()
	e.deliver()
	defer cancel()

	hooks := observability.Image()
	hooks.OnEncodeStart(ctx, string(p.Format), p.EffectiveQuality())
	start := time.Now()
	data, err := e.encode(ctx, img, hash, p)
	elapsed := time.Since(start)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		hooks.OnEncodeDiscarded(ctx, string(p.Format), p.EffectiveQuality())
		e.logger.Debug("stale encode discarded", "format", p.Format, "quality", p.EffectiveQuality())
		return
	}
	e.cancel = nil
	hooks.OnEncodeComplete(ctx, string(p.Format), p.EffectiveQuality(), len(data), elapsed, err)

	if err != nil {
		if !errors.Is(err, errors.ErrCodeEncode) && !errors.Is(err, errors.ErrCodeUnsupported) {
			err = errors.Wrap(errors.ErrCodeEncode, err, "encode %s", p.Format)
		}
		e.lastErr = err
		e.setLocked(Event{State: Error, Params: p, Artifact: e.artifact, Err: err})
		e.mu.Unlock()
		e.deliver()
		e.logger.Debug("encode failed", "format", p.Format, "error", err)
		return
	}

	e.retireLocked(e.artifact)
	e.artifact = newArtifact(data, p)
	e.lastErr = nil
	e.setLocked(Event{State: Ready, Params: p, Artifact: e.artifact})
	e.mu.Unlock()
	e.deliver()

	e.logger.Debug("encode complete", "format", p.Format, "quality", p.EffectiveQuality(), "bytes", len(data), "duration", elapsed)
}

// encode consults the cache before running the codec.
func (e *Engine) encode(ctx context.Context, img image.Image, hash string, p Params) ([]byte, error) {
	key := e.opts.Keyer.EncodeKey(hash, cache.EncodeKeyOpts{Format: string(p.Format), Quality: p.EffectiveQuality()})
	hooks := observability.Cache()

	if data, ok, err := e.opts.Cache.Get(ctx, key); err == nil && ok {
		e.trackCacheKey(hash, key)
		hooks.OnCacheHit(ctx, "encode")
		e.logger.Debug("encode cache hit", "format", p.Format, "quality", p.EffectiveQuality())
		return data, nil
	}
	hooks.OnCacheMiss(ctx, "encode")

	data, err := e.opts.Codec.Encode(ctx, img, p)
	if err != nil {
		return nil, err
	}
	if err := e.opts.Cache.Set(ctx, key, data, cache.TTLEncoded); err != nil {
		e.logger.Debug("encode cache write failed", "error", err)
	} else {
		hooks.OnCacheSet(ctx, "encode", len(data))
		if !e.trackCacheKey(hash, key) {
			// The source was released while encoding.
			_ = e.opts.Cache.Delete(context.Background(), key)
		}
	}
	return data, nil
}

// trackCacheKey records key for the source with the given hash. It reports
// false when that source is no longer loaded.
func (e *Engine) trackCacheKey(hash, key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hash != hash {
		return false
	}
	if !slices.Contains(e.cacheKeys, key) {
		e.cacheKeys = append(e.cacheKeys, key)
	}
	return true
}

// purgeCache deletes the encode cache entries of released sources. mu must
// not be held.
func (e *Engine) purgeCache() {
	e.mu.Lock()
	keys := e.staleKeys
	e.staleKeys = nil
	e.mu.Unlock()

	for _, key := range keys {
		if err := e.opts.Cache.Delete(context.Background(), key); err != nil {
			e.logger.Debug("encode cache delete failed", "error", err)
		}
	}
}

// =============================================================================
// Internals
// =============================================================================

// releaseLocked invalidates pending work and drops every held resource.
// It reports whether anything was held. mu must be held.
func (e *Engine) releaseLocked() bool {
	held := e.source != nil || e.bitmap != nil || e.artifact != nil || e.state != Empty

	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.retireLocked(e.artifact)
	e.artifact = nil
	e.staleKeys = append(e.staleKeys, e.cacheKeys...)
	e.cacheKeys = nil
	e.source = nil
	e.hash = ""
	e.bitmap = nil
	e.info = SourceInfo{}
	e.lastErr = nil
	return held
}

// retireLocked releases a and queues the OnRelease notification. mu must be
// held.
func (e *Engine) retireLocked(a *Artifact) {
	if a != nil && a.release() {
		e.retired = append(e.retired, a)
	}
}

// setLocked moves to ev.State and queues ev for delivery. mu must be held.
func (e *Engine) setLocked(ev Event) {
	e.state = ev.State
	e.pending = append(e.pending, ev)
}

// deliver drains the release and event queues. Only one goroutine drains at
// a time; a caller that finds a drain in progress returns at once and its
// queued entries are delivered by the active drainer. Release notifications
// queued before an event are delivered before it. mu must not be held.
func (e *Engine) deliver() {
	e.mu.Lock()
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true

	for {
		retired := e.retired
		e.retired = nil
		if len(retired) == 0 && len(e.pending) == 0 {
			e.delivering = false
			e.mu.Unlock()
			return
		}
		var ev *Event
		if len(e.pending) > 0 {
			ev = &e.pending[0]
			e.pending = e.pending[1:]
		}
		subs := e.subscribers()
		e.mu.Unlock()

		if e.opts.OnRelease != nil {
			for _, a := range retired {
				e.opts.OnRelease(a)
			}
		}
		if ev != nil {
			for _, fn := range subs {
				fn(*ev)
			}
		}
		e.mu.Lock()
	}
}

// subscribers returns callbacks in subscription order. mu must be held.
func (e *Engine) subscribers() []func(Event) {
	fns := make([]func(Event), 0, len(e.subs))
	for id := uint64(0); id < e.nextSub; id++ {
		if fn, ok := e.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func errClosed() error {
	return errors.New(errors.ErrCodeInvalidInput, "engine is closed")
}
