package compress

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/devtoys/pkg/errors"
)

// Artifact is a read-only handle to one encoded output. The engine that
// produced it owns the bytes and releases them when a newer artifact is
// published or the engine is reset.
type Artifact struct {
	id        string
	format    ImageFormat
	quality   int
	size      int
	createdAt time.Time

	mu       sync.RWMutex
	data     []byte
	released bool
}

func newArtifact(data []byte, p Params) *Artifact {
	return &Artifact{
		id:        uuid.NewString(),
		format:    p.Format,
		quality:   p.EffectiveQuality(),
		size:      len(data),
		createdAt: time.Now(),
		data:      data,
	}
}

// ID uniquely identifies the artifact.
func (a *Artifact) ID() string { return a.id }

// Len is the encoded size in bytes. It stays valid after release.
func (a *Artifact) Len() int { return a.size }

// Format is the encoding of the bytes.
func (a *Artifact) Format() ImageFormat { return a.format }

// Quality is the quality used to encode, 0 for lossless formats.
func (a *Artifact) Quality() int { return a.quality }

// CreatedAt is when the encode finished.
func (a *Artifact) CreatedAt() time.Time { return a.createdAt }

// Released reports whether the bytes have been dropped.
func (a *Artifact) Released() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.released
}

// Open returns a reader over the encoded bytes.
func (a *Artifact) Open() (io.Reader, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.released {
		return nil, a.releasedError()
	}
	return bytes.NewReader(a.data), nil
}

// WriteTo writes the encoded bytes to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.released {
		return 0, a.releasedError()
	}
	n, err := w.Write(a.data)
	return int64(n), err
}

func (a *Artifact) releasedError() error {
	return errors.New(errors.ErrCodeReleased, "artifact %s has been released", a.id)
}

// release drops the bytes. It reports false if they were already dropped.
func (a *Artifact) release() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return false
	}
	a.released = true
	a.data = nil
	return true
}
