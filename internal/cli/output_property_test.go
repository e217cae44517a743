package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: colouring never changes the visible text or its width, so
// tables stay aligned with and without a terminal.
func TestProperty_ColoredTextKeepsWidth(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	on := &Output{writer: &bytes.Buffer{}, colorEnabled: true}
	off := &Output{writer: &bytes.Buffer{}, colorEnabled: false}
	attrs := []color.Attribute{color.FgRed, color.FgGreen, color.FgBlue, color.FgYellow, color.Bold}

	properties.Property("stripANSI(Colored(s)) == s", prop.ForAll(
		func(s string, k int) bool {
			attr := attrs[k%len(attrs)]
			colored := on.Colored(s, attr)
			return stripANSI(colored) == s &&
				visibleLen(colored) == visibleLen(s) &&
				off.Colored(s, attr) == s
		},
		gen.AlphaString(),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestTable_RenderAligns(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf, colorEnabled: true}

	table := NewTable(out, "A", "LONGER")
	table.AddRow(out.Cell("red", ToneRed), "x")
	table.AddRow("plain", "y")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Render() printed %d lines, want 4", len(lines))
	}
	col := strings.Index(stripANSI(lines[0]), "LONGER")
	for _, l := range lines[2:] {
		plain := stripANSI(l)
		if len(plain) <= col || plain[col-1] != ' ' {
			t.Errorf("row %q is not aligned at column %d", plain, col)
		}
	}
}
