package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/devtoys/pkg/cache"
	"github.com/matzehuels/devtoys/pkg/compress"
	"github.com/matzehuels/devtoys/pkg/errors"
)

// qualityStep is how far one arrow key press moves the quality.
const qualityStep = 5

var (
	tuiSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	tuiDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tuiBarFull       = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Messages
// =============================================================================

// engineEventMsg carries one engine event into the program.
type engineEventMsg compress.Event

// loadedMsg reports the end of the initial Load.
type loadedMsg struct{ err error }

// savedMsg reports the end of a save.
type savedMsg struct {
	path string
	err  error
}

// =============================================================================
// compressModel - Interactive recompression preview
// =============================================================================

// interactiveOpts configures an interactive session.
type interactiveOpts struct {
	path     string
	output   string
	params   compress.Params
	debounce time.Duration
	cache    cache.Cache
	logger   *log.Logger
}

// compressModel is the bubbletea model for the interactive preview. Every
// key press goes straight to the engine, so holding an arrow key produces a
// burst that the engine's debounce collapses into one encode.
type compressModel struct {
	ctx    context.Context
	eng    *compress.Engine
	events <-chan compress.Event
	data   []byte
	path   string
	output string

	params   compress.Params
	state    compress.State
	source   compress.SourceInfo
	artifact *compress.Artifact
	err      error
	saved    string
}

func newCompressModel(ctx context.Context, eng *compress.Engine, events <-chan compress.Event, data []byte, opts interactiveOpts) compressModel {
	return compressModel{
		ctx:    ctx,
		eng:    eng,
		events: events,
		data:   data,
		path:   opts.path,
		output: opts.output,
		params: eng.Params(),
	}
}

func (m compressModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForEvent())
}

func (m compressModel) load() tea.Cmd {
	ctx, eng, data := m.ctx, m.eng, m.data
	return func() tea.Msg {
		return loadedMsg{err: eng.Load(ctx, data)}
	}
}

func (m compressModel) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return engineEventMsg(<-events)
	}
}

func (m compressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case engineEventMsg:
		m.applyEvent(compress.Event(msg))
		return m, m.waitForEvent()

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
		}

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.saved = msg.path
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			return m.adjustQuality(-qualityStep), nil
		case "right", "l":
			return m.adjustQuality(qualityStep), nil
		case "f":
			return m.cycleFormat(), nil
		case "s":
			return m, m.save()
		}
	}
	return m, nil
}

func (m *compressModel) applyEvent(ev compress.Event) {
	m.state = ev.State
	switch ev.State {
	case compress.Empty:
		m.artifact = nil
		m.err = nil
	case compress.Decoded:
		m.source = ev.Source
		m.err = nil
	case compress.Ready:
		m.artifact = ev.Artifact
		m.err = nil
	case compress.Error:
		m.artifact = ev.Artifact
		m.err = ev.Err
	}
}

func (m compressModel) adjustQuality(delta int) compressModel {
	if !m.params.Format.Lossy() {
		return m
	}
	p := m.params
	p.Quality = min(max(p.Quality+delta, errors.MinQuality), errors.MaxQuality)
	return m.setParams(p)
}

func (m compressModel) cycleFormat() compressModel {
	i := slices.Index(compress.TargetFormats, m.params.Format)
	p := m.params
	p.Format = compress.TargetFormats[(i+1)%len(compress.TargetFormats)]
	if p.Quality == 0 {
		p.Quality = compress.DefaultQuality
	}
	return m.setParams(p)
}

func (m compressModel) setParams(p compress.Params) compressModel {
	if p == m.params {
		return m
	}
	if err := m.eng.SetParams(p); err != nil {
		m.err = err
		return m
	}
	m.params = p
	m.saved = ""
	return m
}

// save writes the current artifact. The write runs outside the event loop.
func (m compressModel) save() tea.Cmd {
	a := m.artifact
	if a == nil || m.state != compress.Ready {
		return nil
	}
	dest := m.destination(a.Format())
	return func() tea.Msg {
		return savedMsg{path: dest, err: writeArtifact(dest, a)}
	}
}

func (m compressModel) destination(f compress.ImageFormat) string {
	switch {
	case m.output == "":
		return filepath.Join(filepath.Dir(m.path), compress.OutputName(m.path, f))
	case isDir(m.output):
		return filepath.Join(m.output, compress.OutputName(m.path, f))
	}
	return m.output
}

func (m compressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Compress " + filepath.Base(m.path)))
	b.WriteString("\n")
	if m.source.Size > 0 {
		b.WriteString(tuiDimStyle.Render(fmt.Sprintf("%s  %d×%d  %s",
			strings.ToUpper(m.source.Format), m.source.Width, m.source.Height,
			compress.FormatBytes(int64(m.source.Size)))))
	} else {
		b.WriteString(tuiDimStyle.Render("decoding..."))
	}
	b.WriteString("\n\n")

	formats := make([]string, len(compress.TargetFormats))
	for i, f := range compress.TargetFormats {
		if f == m.params.Format {
			formats[i] = tuiSelectedStyle.Render("[" + string(f) + "]")
		} else {
			formats[i] = tuiNormalStyle.Render(" " + string(f) + " ")
		}
	}
	b.WriteString("Format   " + strings.Join(formats, " ") + "\n")
	b.WriteString("Quality  " + m.qualityBar() + "\n\n")

	b.WriteString(m.resultLine())
	b.WriteString("\n\n")
	b.WriteString(tuiDimStyle.Render("←/→ quality  f format  s save  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m compressModel) qualityBar() string {
	if !m.params.Format.Lossy() {
		return tuiDimStyle.Render("lossless")
	}
	const width = 20
	filled := m.params.Quality * width / errors.MaxQuality
	return tuiBarFull.Render(strings.Repeat("█", filled)) +
		tuiDimStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d", m.params.Quality)
}

func (m compressModel) resultLine() string {
	switch {
	case m.err != nil:
		return StyleError.Render(iconError + " " + errors.UserMessage(m.err))
	case m.state == compress.Encoding:
		return tuiDimStyle.Render("encoding...")
	case m.state == compress.Ready && m.artifact != nil:
		line := fmt.Sprintf("%s %s  %s",
			iconArrow,
			StyleValue.Render(compress.FormatBytes(int64(m.artifact.Len()))),
			formatReduction(compress.Reduction(m.source.Size, m.artifact.Len())))
		if m.saved != "" {
			line += "  " + StyleSuccess.Render(iconSuccess+" saved "+m.saved)
		}
		return line
	}
	return tuiDimStyle.Render("waiting...")
}

// =============================================================================
// Program
// =============================================================================

// runInteractive opens the preview for one image and blocks until the user
// quits or ctx is cancelled.
func runInteractive(ctx context.Context, opts interactiveOpts) error {
	data, err := os.ReadFile(opts.path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	eng := compress.New(compress.Options{
		Debounce: opts.debounce,
		Params:   opts.params,
		Cache:    opts.cache,
		Logger:   opts.logger,
	})
	defer eng.Close()

	progCtx, stop := context.WithCancel(ctx)
	defer stop()

	// Events are queued instead of sent to the program directly: the
	// engine may deliver from inside Update via SetParams.
	events := make(chan compress.Event, 64)
	unsubscribe := eng.Subscribe(func(ev compress.Event) {
		select {
		case events <- ev:
		case <-progCtx.Done():
		}
	})
	defer unsubscribe()

	m := newCompressModel(progCtx, eng, events, data, opts)
	p := tea.NewProgram(m, tea.WithContext(progCtx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if fm, ok := final.(compressModel); ok && fm.saved != "" {
		printSuccess("Saved %s", fm.saved)
	}
	return nil
}
