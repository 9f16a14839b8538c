package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/observability"
)

// Controller re-derives output whenever its input or parameters change.
// It is safe for concurrent use; changes are applied one at a time and
// observers see snapshots in revision order.
type Controller struct {
	mu       sync.Mutex
	input    string
	op       Operation
	indent   codec.Indent
	state    State
	output   string
	err      error
	revision uint64

	observers map[uint64]func(Snapshot)
	nextID    uint64
	notifyMu  sync.Mutex
	logger    *log.Logger
}

// New creates a controller in the Empty state. Invalid options fall back to
// the defaults and are logged.
func New(opts Options) *Controller {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		logger := opts.Logger
		opts = Options{Logger: logger}
		_ = opts.ValidateAndSetDefaults()
		opts.Logger.Warn("invalid pipeline options, using defaults", "error", err)
	}
	c := &Controller{
		op:        opts.Operation,
		indent:    opts.Indent,
		observers: make(map[uint64]func(Snapshot)),
		logger:    opts.Logger,
	}
	if f, ok := c.op.(Format); ok && f.Indent != codec.IndentNone {
		c.indent = f.Indent
		c.op = Format{}
	}
	return c
}

// SetInput is shorthand for Apply(InputChanged{text}).
func (c *Controller) SetInput(text string) Snapshot {
	return c.Apply(InputChanged{Text: text})
}

// SetOperation is shorthand for Apply(OperationChanged{op}).
func (c *Controller) SetOperation(op Operation) Snapshot {
	return c.Apply(OperationChanged{Op: op})
}

// SetIndent is shorthand for Apply(IndentChanged{indent}).
func (c *Controller) SetIndent(indent codec.Indent) Snapshot {
	return c.Apply(IndentChanged{Indent: indent})
}

// Apply records ch, re-runs the current operation and notifies observers.
// It returns the resulting snapshot.
func (c *Controller) Apply(ch Change) Snapshot {
	c.mu.Lock()
	if err := c.record(ch); err != nil {
		c.fail(err)
	} else {
		c.evaluate()
	}
	c.revision++
	snap := c.snapshotLocked()
	observers := c.observerList()

	// Take the notify lock before releasing mu so observers cannot see
	// revisions out of order.
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	return snap
}

// record applies ch to the controller parameters. mu must be held.
func (c *Controller) record(ch Change) error {
	switch ch := ch.(type) {
	case InputChanged:
		c.input = ch.Text
	case IndentChanged:
		if err := validateIndent(ch.Indent); err != nil {
			return err
		}
		c.indent = ch.Indent
		c.logger.Debug("indent changed", "indent", ch.Indent)
	case OperationChanged:
		return c.selectOperation(ch.Op)
	default:
		return errors.New(errors.ErrCodeInternal, "unhandled change %T", ch)
	}
	return nil
}

func (c *Controller) selectOperation(op Operation) error {
	switch o := op.(type) {
	case nil:
		return errors.New(errors.ErrCodeInvalidInput, "no operation selected")
	case Minify:
		if _, already := c.op.(Minify); already {
			op = Format{}
		}
	case Format:
		if o.Indent != codec.IndentNone {
			if err := validateIndent(o.Indent); err != nil {
				return err
			}
			c.indent = o.Indent
		}
		op = Format{}
	case Convert:
		if _, err := codec.For(o.From); err != nil {
			return err
		}
		if _, err := codec.For(o.To); err != nil {
			return err
		}
	}
	c.logger.Debug("operation selected", "op", op.Name())
	c.op = op
	return nil
}

// evaluate runs the current operation against the input. mu must be held.
func (c *Controller) evaluate() {
	if strings.TrimSpace(c.input) == "" {
		c.state, c.output, c.err = Empty, "", nil
		return
	}

	ctx := context.Background()
	name := c.op.Name()
	hooks := observability.Pipeline()
	hooks.OnTransformStart(ctx, name, len(c.input))

	start := time.Now()
	out, err := run(c.op, c.input, c.indent)
	elapsed := time.Since(start)
	hooks.OnTransformComplete(ctx, name, len(out), elapsed, err)

	if err != nil {
		c.fail(err)
		return
	}
	c.state, c.output, c.err = Valid, out, nil
	c.logger.Debug("transform complete", "op", name, "in", len(c.input), "out", len(out), "duration", elapsed)
}

// fail enters Invalid and keeps the last output. mu must be held.
func (c *Controller) fail(err error) {
	c.state, c.err = Invalid, err
	c.logger.Debug("transform failed", "op", c.op.Name(), "error", err)
}

// Snapshot returns the current state without applying a change.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	_, minified := c.op.(Minify)
	return Snapshot{
		Revision:  c.revision,
		State:     c.state,
		Output:    c.output,
		Err:       c.err,
		Operation: c.op,
		Indent:    c.indent,
		Minified:  minified,
	}
}

// Input returns the current input text.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Reset clears input, output and error. Operation and indent are kept.
func (c *Controller) Reset() Snapshot {
	return c.Apply(InputChanged{})
}

// Subscribe registers fn to receive every snapshot produced after this call.
// The returned function removes the subscription. fn runs on the goroutine
// that applied the change and must not call back into Apply.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// observerList returns observers in subscription order. mu must be held.
func (c *Controller) observerList() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(c.observers))
	for id := uint64(0); id < c.nextID; id++ {
		if fn, ok := c.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
