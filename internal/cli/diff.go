package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff shows how after differs from before. Insertions are green and
// deletions red with strikethrough. Equal text is dimmed.
func renderDiff(before, after string) string {
	dmp := diffpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, true))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffInsert:
			b.WriteString(renderLines(styleDiffInsert, d.Text))
		case diffpatch.DiffDelete:
			b.WriteString(renderLines(styleDiffDelete, d.Text))
		case diffpatch.DiffEqual:
			b.WriteString(renderLines(StyleDim, d.Text))
		}
	}
	if !strings.HasSuffix(after, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

// renderLines styles each line of text separately. Rendering a multi-line
// string in one call would pad every line to the widest one.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = style.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

// diffStats counts inserted and deleted runes.
func diffStats(before, after string) (inserted, deleted int) {
	dmp := diffpatch.New()
	for _, d := range dmp.DiffMain(before, after, false) {
		switch d.Type {
		case diffpatch.DiffInsert:
			inserted += len([]rune(d.Text))
		case diffpatch.DiffDelete:
			deleted += len([]rune(d.Text))
		}
	}
	return inserted, deleted
}
