// Package pipeline provides the document transformation controller behind
// the devtoys JSON tool.
//
// A [Controller] owns one input text, one current [Operation] and one indent
// setting. Every change to any of them re-runs parse → transform → serialize
// synchronously and publishes a [Snapshot] to subscribers.
//
// # States
//
// The controller is always in one of three states:
//
//  1. Empty: the input is blank; output and error are cleared
//  2. Valid: the last run succeeded; output holds its result
//  3. Invalid: the last run failed; the error is set and output keeps the
//     result of the last successful run
//
// Keeping the previous output on failure means a user who is halfway through
// editing a document does not lose what they last saw.
//
// # Usage
//
//	c := pipeline.New(pipeline.Options{})
//	cancel := c.Subscribe(func(s pipeline.Snapshot) { fmt.Println(s.Output) })
//	defer cancel()
//
//	c.SetInput(`{"b":1,"a":2}`)
//	c.SetOperation(pipeline.Sort{Direction: transform.Ascending})
//	c.SetOperation(pipeline.Convert{From: codec.FormatJSON, To: codec.FormatYAML})
//
// # Minify
//
// Minify and Format are two positions of one toggle. Selecting Minify while
// it is already the current operation switches back to Format with the
// current indent instead of doing nothing.
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultIndent is the indent of a new controller.
const DefaultIndent = codec.DefaultIndent

// ExampleDocument is the sample input offered by "load example".
const ExampleDocument = `{
  "project": "DevToys",
  "version": "1.0.0",
  "description": "Developer Tools Reimagined",
  "features": [
    "JSON Formatting",
    "Image Compression",
    "Encoding & Decoding"
  ],
  "active": true,
  "metadata": {
    "theme": "dark",
    "color": "#22C55E"
  }
}`

// =============================================================================
// Options
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Indent for JSON output. Zero means DefaultIndent.
	Indent codec.Indent

	// Operation selected initially. Nil means Format.
	Operation Operation

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
	if o.Indent == codec.IndentNone {
		o.Indent = DefaultIndent
	}
	if err := validateIndent(o.Indent); err != nil {
		return err
	}
	if o.Operation == nil {
		o.Operation = Format{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// validateIndent accepts a tab or 1..MaxIndent spaces. Single-line output
// is selected with Minify, not with a zero indent.
func validateIndent(i codec.Indent) error {
	if i == codec.IndentTab {
		return nil
	}
	if i == codec.IndentNone {
		return errors.New(errors.ErrCodeInvalidInput, "indent must be at least 1 space or a tab; use minify for single-line output")
	}
	return errors.ValidateIndent(int(i))
}

// =============================================================================
// State
// =============================================================================

// State is the validation state of the controller.
type State int

const (
	Empty State = iota
	Valid
	Invalid
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Snapshot is an immutable view of the controller after one change.
type Snapshot struct {
	// Revision increases by one with every applied change, so observers can
	// drop snapshots older than one they have already handled.
	Revision uint64

	State     State
	Output    string
	Err       error
	Operation Operation
	Indent    codec.Indent

	// Minified reports whether the current operation is Minify.
	Minified bool
}

// ErrorMessage returns the user-facing error text, or "" when there is none.
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return errors.UserMessage(s.Err)
}

// =============================================================================
// Changes
// =============================================================================

// Change is an input to Controller.Apply. Like Operation it is a closed set.
type Change interface{ change() }

// InputChanged replaces the input text.
type InputChanged struct{ Text string }

// OperationChanged selects a new current operation.
type OperationChanged struct{ Op Operation }

// IndentChanged sets the JSON indent.
type IndentChanged struct{ Indent codec.Indent }

func (InputChanged) change()     {}
func (OperationChanged) change() {}
func (IndentChanged) change()    {}
