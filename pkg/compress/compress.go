// Package compress implements the devtoys image recompression engine.
//
// An [Engine] holds at most one source image. The source is decoded once on
// [Engine.Load]; every later parameter change only re-encodes the retained
// bitmap. Encodes are debounced so that a burst of changes (a quality slider
// being dragged) produces a single encode with the last parameters.
//
// # States
//
//	Empty ──Load──▶ Decoded ──debounce──▶ Encoding ──▶ Ready
//	                   ▲                     │   ▲        │
//	                   │                     ▼   └SetParams┘
//	                   └────── Load ──────  Error
//
// A failed encode enters Error but keeps the last Ready artifact, so the host
// can keep showing it. Reset returns to Empty from any state and releases the
// bitmap, the source bytes and the live artifact.
//
// # Stale Results
//
// Every scheduled encode captures a generation number. Load, SetParams and
// Reset all advance the generation; a timer or an in-flight encode whose
// generation is no longer current is dropped without emitting anything.
// Cancellation is cooperative: a superseded encode runs to completion (or
// until its codec notices the cancelled context) and its result is ignored.
//
// # Artifacts
//
// The engine owns exactly one live [Artifact]. Publishing a new one releases
// the previous one first; readers of a released artifact get an
// ARTIFACT_RELEASED error.
//
// # Usage
//
//	e := compress.New(compress.Options{Params: compress.Params{Format: compress.JPEG, Quality: 80}})
//	defer e.Close()
//	cancel := e.Subscribe(func(ev compress.Event) {
//	    if ev.State == compress.Ready {
//	        ev.Artifact.WriteTo(out)
//	    }
//	})
//	defer cancel()
//	e.Load(ctx, src)
//	e.SetParams(compress.Params{Format: compress.JPEG, Quality: 50})
package compress

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/devtoys/pkg/cache"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultDebounce is the quiescence window before an encode starts.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultQuality is the initial quality for lossy targets.
	DefaultQuality = 80
)

// DefaultParams are used when Options.Params is zero.
var DefaultParams = Params{Format: JPEG, Quality: DefaultQuality}

// =============================================================================
// Options
// =============================================================================

// Options configures an Engine.
type Options struct {
	// Debounce is the quiescence window. Zero means DefaultDebounce.
	Debounce time.Duration

	// Params are the initial encode parameters. Zero means DefaultParams.
	Params Params

	// Codec decodes and encodes images. Nil means ImagingCodec.
	Codec Codec

	// Cache memoises encoded bytes per source and params. Nil disables it.
	Cache cache.Cache

	// Keyer builds cache keys. Nil means cache.DefaultKeyer.
	Keyer cache.Keyer

	// OnRelease is called each time an artifact is released, outside the
	// engine lock and before the event that caused the release.
	OnRelease func(*Artifact)

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Params == (Params{}) {
		o.Params = DefaultParams
	}
	if err := o.Params.Validate(); err != nil {
		return err
	}
	if o.Codec == nil {
		o.Codec = ImagingCodec{}
	}
	if o.Cache == nil {
		o.Cache = cache.NullCache{}
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	o.validated = true
	return nil
}

// =============================================================================
// State and Events
// =============================================================================

// State is the engine's lifecycle state.
type State int

const (
	Empty State = iota
	Decoded
	Encoding
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Decoded:
		return "decoded"
	case Encoding:
		return "encoding"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// Event reports one state transition.
type Event struct {
	State State

	// Params are the parameters of the encode that produced this event.
	// Set for Encoding, Ready and encode errors.
	Params Params

	// Artifact is the live artifact: the new one for Ready, the retained
	// one (possibly nil) for Error.
	Artifact *Artifact

	// Err is set for Error.
	Err error

	// Source describes the decoded image. Set for Decoded.
	Source SourceInfo
}

// SourceInfo describes a decoded source image.
type SourceInfo struct {
	Format string
	Width  int
	Height int
	Size   int
}
