package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderDiff(t *testing.T) {
	before := "{\"a\": 1}"
	after := "{\n  \"a\": 1\n}"

	got := renderDiff(before, after)
	if !strings.Contains(got, `"a"`) {
		t.Errorf("diff lost equal text: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("diff should end with a newline")
	}
}

func TestRenderLinesDoesNotPad(t *testing.T) {
	got := renderLines(lipgloss.NewStyle(), "a\nlonger line\n")
	if got != "a\nlonger line\n" {
		t.Errorf("renderLines = %q", got)
	}
}

func TestDiffStats(t *testing.T) {
	tests := []struct {
		before, after string
		ins, del      int
	}{
		{"abc", "abc", 0, 0},
		{"abc", "abxc", 1, 0},
		{"{ \"a\" : 1 }", "{\"a\":1}", 0, 4},
		{"é", "\\u00e9", 6, 1},
	}
	for _, tt := range tests {
		t.Run(tt.before, func(t *testing.T) {
			ins, del := diffStats(tt.before, tt.after)
			if ins != tt.ins || del != tt.del {
				t.Errorf("diffStats(%q, %q) = +%d -%d, want +%d -%d", tt.before, tt.after, ins, del, tt.ins, tt.del)
			}
		})
	}
}
