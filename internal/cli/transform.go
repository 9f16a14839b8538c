package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/pipeline"
)

// transformOpts holds the flags of the transform command.
type transformOpts struct {
	op       string
	from     string
	to       string
	indent   string
	output   string
	example  bool
	diff     bool
	xmlTypes bool
}

// transformCommand creates the transform command.
func (c *CLI) transformCommand() *cobra.Command {
	var opts transformOpts

	cmd := &cobra.Command{
		Use:   "transform [file]",
		Short: "Format, minify, escape, sort or convert a document",
		Long: `Transform a JSON, XML, YAML or query-string document.

Operations (--op):
  format          pretty-print JSON (default)
  minify          single-line JSON
  escape          wrap the text in a JSON string literal
  unescape        undo escape, pretty-printing embedded JSON
  unicode-encode  replace non-ASCII characters with \uXXXX escapes
  unicode-decode  decode \uXXXX escapes
  sort-asc        sort object keys ascending, recursively
  sort-desc       sort object keys descending, recursively
  convert         convert between formats, set with --from and --to

The document is read from the file argument, from stdin when the argument
is "-" or stdin is piped, or from the built-in example with --example.`,
		Example: `  devtoys transform data.json
  cat data.json | devtoys transform --op minify
  devtoys transform --op sort-desc --indent 4 data.json -o sorted.json
  devtoys transform --from yaml --to json config.yaml
  devtoys transform --example --op escape --diff`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTransform(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.op, "op", "", "operation (format, minify, escape, unescape, unicode-encode, unicode-decode, sort-asc, sort-desc, convert)")
	cmd.Flags().StringVar(&opts.from, "from", "", "source format for convert: json, xml, yaml, querystring")
	cmd.Flags().StringVar(&opts.to, "to", "", "target format for convert: json, xml, yaml, querystring")
	cmd.Flags().StringVar(&opts.indent, "indent", "", "JSON indent: 1-10 spaces or \"tab\"; 0 minifies with format (default from config, else 2)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.example, "example", false, "use the built-in example document as input")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "show a colored diff of input and output")
	cmd.Flags().BoolVar(&opts.xmlTypes, "xml-types", false, "convert XML text that reads as true, false or a number to a JSON bool or number")

	_ = cmd.RegisterFlagCompletionFunc("op", fixedCompletion(operationCompletions...))
	_ = cmd.RegisterFlagCompletionFunc("from", fixedCompletion(documentFormatNames()...))
	_ = cmd.RegisterFlagCompletionFunc("to", fixedCompletion(documentFormatNames()...))
	_ = cmd.RegisterFlagCompletionFunc("indent", fixedCompletion("0", "2", "4", "tab"))

	return cmd
}

func (c *CLI) runTransform(cmd *cobra.Command, args []string, opts transformOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.indent == "" {
		opts.indent = cfg.JSON.Indent
	}
	indent, err := codec.ParseIndent(opts.indent)
	if err != nil {
		return err
	}
	op, err := resolveOperation(opts)
	if err != nil {
		return err
	}
	// A zero indent selects single-line output for the format operation;
	// the controller itself only accepts real indents.
	if indent == codec.IndentNone {
		switch o := op.(type) {
		case pipeline.Format:
			op = pipeline.Minify{}
		case pipeline.Sort:
			return errors.New(errors.ErrCodeInvalidInput, "indent 0 only applies to format; %s needs 1-10 spaces or tab", o.Name())
		case pipeline.Convert:
			if o.To == codec.FormatJSON {
				return errors.New(errors.ErrCodeInvalidInput, "indent 0 only applies to format; %s needs 1-10 spaces or tab", o.Name())
			}
		}
	}

	name, input, err := readDocument(cmd.InOrStdin(), args, opts.example)
	if err != nil {
		return err
	}
	logger.Debug("transform", "op", op.Name(), "indent", indent, "input", name, "bytes", len(input))

	ctrl := pipeline.New(pipeline.Options{Indent: indent, Operation: op, Logger: logger})
	snap := ctrl.SetInput(input)
	switch snap.State {
	case pipeline.Empty:
		return errors.New(errors.ErrCodeInvalidInput, "%s is empty", name)
	case pipeline.Invalid:
		return fmt.Errorf("%s: %w", name, snap.Err)
	}

	if opts.diff {
		ins, del := diffStats(input, snap.Output)
		fmt.Fprint(cmd.OutOrStdout(), renderDiff(input, snap.Output))
		printDetail("+%d -%d characters", ins, del)
	}

	out := snap.Output
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		printSuccess("%s %s", op.Name(), name)
		printFile(opts.output)
		return nil
	}
	if opts.diff {
		return nil
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// resolveOperation turns --op, --from and --to into an Operation. --from and
// --to alone imply convert.
func resolveOperation(opts transformOpts) (pipeline.Operation, error) {
	name := strings.ToLower(strings.TrimSpace(opts.op))
	convertFlags := opts.from != "" || opts.to != ""

	switch {
	case name == "" && !convertFlags:
		if opts.xmlTypes {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--xml-types only applies to convert")
		}
		return pipeline.Format{}, nil
	case name == "" || name == "convert":
		if opts.from == "" || opts.to == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "convert needs both --from and --to")
		}
		conv, err := pipeline.NewConvert(opts.from, opts.to)
		if err != nil {
			return nil, err
		}
		conv.CoerceXMLText = opts.xmlTypes
		return conv, nil
	case convertFlags:
		return nil, errors.New(errors.ErrCodeInvalidInput, "--from and --to only apply to convert, not %q", opts.op)
	}
	op, err := pipeline.ParseOperation(name)
	if err != nil {
		return nil, err
	}
	if opts.xmlTypes {
		conv, ok := op.(pipeline.Convert)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--xml-types only applies to convert")
		}
		conv.CoerceXMLText = true
		op = conv
	}
	return op, nil
}

// readDocument returns a display name and the text to transform.
func readDocument(stdin io.Reader, args []string, example bool) (string, string, error) {
	if example {
		if len(args) > 0 {
			return "", "", errors.New(errors.ErrCodeInvalidInput, "--example cannot be combined with a file argument")
		}
		return "example", pipeline.ExampleDocument, nil
	}

	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("read input: %w", err)
		}
		return args[0], string(data), nil
	}

	if len(args) == 0 && isTerminal(stdin) {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "no input: pass a file, pipe a document to stdin, or use --example")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	return "stdin", string(data), nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
