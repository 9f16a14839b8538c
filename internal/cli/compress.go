package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/devtoys/pkg/cache"
	"github.com/matzehuels/devtoys/pkg/compress"
	"github.com/matzehuels/devtoys/pkg/errors"
)

// batchDebounce replaces the interactive debounce window in batch mode,
// where params never change after Load.
const batchDebounce = time.Millisecond

// compressOpts holds the flags of the compress command.
type compressOpts struct {
	format      string
	quality     int
	output      string
	jobs        int
	interactive bool
	noCache     bool
}

// compressCommand creates the compress command.
func (c *CLI) compressCommand() *cobra.Command {
	var opts compressOpts

	cmd := &cobra.Command{
		Use:   "compress <image>...",
		Short: "Recompress images to a smaller file",
		Long: `Recompress images as JPEG, WebP, PNG, GIF, BMP or TIFF.

Inputs may be JPEG, PNG, GIF, BMP, TIFF or WebP. Each result is written next
to its source as <name>-compressed.<format> unless -o is given. With one
input -o names the output file; with several it names a directory.

--quality applies to JPEG and WebP; lossless formats ignore it.

With --interactive a single image is opened in a terminal preview where the
quality and format can be adjusted before saving.`,
		Example: `  devtoys compress photo.png
  devtoys compress --format png --jobs 4 *.jpg -o out/
  devtoys compress --interactive photo.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompress(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "target format: jpeg, png, gif, bmp, tiff, webp (default from config, else jpeg)")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "JPEG and WebP quality 1-100 (default from config, else 80)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or directory for several inputs")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "images to compress in parallel")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "adjust quality and format in a live preview")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the in-memory encode cache")

	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(imageFormatNames()...))

	return cmd
}

func (c *CLI) runCompress(cmd *cobra.Command, args []string, opts compressOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	params, err := compressParams(cfg, opts, cmd.Flags().Changed("quality"))
	if err != nil {
		return err
	}
	if opts.jobs < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--jobs must be at least 1, got %d", opts.jobs)
	}
	encCache := newCache(cfg.Image.CacheEntries, opts.noCache)
	defer encCache.Close()

	if opts.interactive {
		if len(args) != 1 {
			return errors.New(errors.ErrCodeInvalidInput, "--interactive takes exactly one image, got %d", len(args))
		}
		return runInteractive(ctx, interactiveOpts{
			path:     args[0],
			output:   opts.output,
			params:   params,
			debounce: cfg.debounce(),
			cache:    encCache,
			logger:   logger,
		})
	}

	dests, err := outputPaths(args, opts.output, params.Format)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	spin := newSpinner(ctx, statusOut, fmt.Sprintf("Compressing %d image(s) to %s", len(args), params.Format))
	spin.Start()

	results := make([]compressResult, len(args))
	var finished atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for i, src := range args {
		g.Go(func() error {
			results[i] = compressFile(gctx, src, dests[i], params, encCache, logger)
			n := finished.Add(1)
			spin.SetMessage(fmt.Sprintf("Compressed %d/%d", n, len(args)))
			// Per-file failures are reported in the table; only
			// cancellation stops the batch.
			return gctx.Err()
		})
	}
	err = g.Wait()
	spin.Stop()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resultTable(results))

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			printError("%s: %s", r.src, errors.UserMessage(r.err))
		}
	}
	prog.done(fmt.Sprintf("Compressed %d of %d image(s)", len(results)-failed, len(results)))
	if failed > 0 {
		return fmt.Errorf("%d of %d image(s) failed", failed, len(results))
	}
	return nil
}

// compressParams merges config and flags into encode params.
func compressParams(cfg Config, opts compressOpts, qualityChanged bool) (compress.Params, error) {
	if opts.format != "" {
		cfg.Image.Format = opts.format
	}
	if qualityChanged {
		cfg.Image.Quality = opts.quality
	}
	return cfg.params()
}

// outputPaths picks a destination for every source. A single source may be
// written to an explicit file; several sources need -o to be a directory.
func outputPaths(srcs []string, output string, f compress.ImageFormat) ([]string, error) {
	dir := ""
	switch {
	case output == "":
	case len(srcs) > 1 || isDir(output) || strings.HasSuffix(output, string(filepath.Separator)):
		if err := os.MkdirAll(output, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		dir = output
	default:
		return []string{output}, nil
	}

	dests := make([]string, len(srcs))
	seen := make(map[string]string, len(srcs))
	for i, src := range srcs {
		d := dir
		if d == "" {
			d = filepath.Dir(src)
		}
		dests[i] = filepath.Join(d, compress.OutputName(src, f))
		if prev, ok := seen[dests[i]]; ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s and %s would both be written to %s", prev, src, dests[i])
		}
		seen[dests[i]] = src
	}
	return dests, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// Single File
// =============================================================================

type compressResult struct {
	src      string
	dest     string
	format   compress.ImageFormat
	original int
	size     int
	err      error
}

// compressFile runs one engine over src and writes the artifact to dest.
func compressFile(ctx context.Context, src, dest string, p compress.Params, c cache.Cache, logger *log.Logger) compressResult {
	res := compressResult{src: src, dest: dest, format: p.Format}

	data, err := os.ReadFile(src)
	if err != nil {
		res.err = errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", src)
		return res
	}
	res.original = len(data)

	eng := compress.New(compress.Options{
		Debounce: batchDebounce,
		Params:   p,
		Cache:    c,
		Logger:   logger.With("file", filepath.Base(src)),
	})
	defer eng.Close()

	settled := make(chan compress.Event, 1)
	unsubscribe := eng.Subscribe(func(ev compress.Event) {
		if ev.State == compress.Ready || ev.State == compress.Error {
			select {
			case settled <- ev:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := eng.Load(ctx, data); err != nil {
		res.err = err
		return res
	}

	var ev compress.Event
	select {
	case ev = <-settled:
	case <-ctx.Done():
		res.err = ctx.Err()
		return res
	}
	if ev.State == compress.Error {
		res.err = ev.Err
		return res
	}

	if err := writeArtifact(dest, ev.Artifact); err != nil {
		res.err = err
		return res
	}
	res.size = ev.Artifact.Len()
	return res
}

// writeArtifact writes a to path, removing a partial file on failure.
func writeArtifact(path string, a *compress.Artifact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := a.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// resultTable renders the batch summary.
func resultTable(results []compressResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			rows = append(rows, []string{filepath.Base(r.src), StyleError.Render("failed"), "", "", ""})
			continue
		}
		rows = append(rows, []string{
			filepath.Base(r.src),
			r.dest,
			compress.FormatBytes(int64(r.original)),
			compress.FormatBytes(int64(r.size)),
			formatReduction(compress.Reduction(r.original, r.size)),
		})
	}
	return renderTable([]string{"File", "Output", "Original", "Compressed", "Reduction"}, rows, 2, 3, 4)
}

// formatReduction colors savings green and growth yellow.
func formatReduction(pct float64) string {
	s := fmt.Sprintf("%.1f%%", pct)
	if pct < 0 {
		return StyleWarning.Render(s)
	}
	return StyleSuccess.Render(s)
}
