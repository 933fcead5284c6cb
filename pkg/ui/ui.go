// Package ui renders CLI output with lipgloss. Nothing here is used by
// `cadmcp serve`, whose stdout belongs to the MCP client.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Out receives all output.
var Out io.Writer = os.Stdout

var (
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#00D9FF")
	successColor   = lipgloss.Color("#04B575")
	errorColor     = lipgloss.Color("#FF5F87")
	warningColor   = lipgloss.Color("#FFAF00")
	mutedColor     = lipgloss.Color("#626262")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			MarginTop(1).
			PaddingLeft(1)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	infoStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	checkmark = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true).
			SetString("✓")

	cross = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true).
		SetString("✗")

	arrow = lipgloss.NewStyle().
		Foreground(secondaryColor).
		SetString("→")

	stepStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)

// PrintTitle prints a major title.
func PrintTitle(title string) {
	fmt.Fprintln(Out, titleStyle.Render("╭─ "+title+" ─╮"))
}

// PrintHeader prints a section header.
func PrintHeader(title string) {
	fmt.Fprintln(Out, headerStyle.Render("▸ "+title))
}

// PrintStep prints a step with indentation.
func PrintStep(step string) {
	fmt.Fprintln(Out, stepStyle.Render(arrow.String()+" "+step))
}

// PrintSuccess prints a success message.
func PrintSuccess(message string) {
	fmt.Fprintln(Out, stepStyle.Render(checkmark.String()+" "+successStyle.Render(message)))
}

// PrintError prints an error message.
func PrintError(message string) {
	fmt.Fprintln(Out, stepStyle.Render(cross.String()+" "+errorStyle.Render(message)))
}

// PrintWarning prints a warning message.
func PrintWarning(message string) {
	fmt.Fprintln(Out, stepStyle.Render("⚠ "+warningStyle.Render(message)))
}

// PrintInfo prints muted text.
func PrintInfo(message string) {
	fmt.Fprintln(Out, stepStyle.Render(infoStyle.Render(message)))
}

// PrintKeyValue prints a key-value pair.
func PrintKeyValue(key, value string) {
	fmt.Fprintln(Out, stepStyle.Render(keyStyle.Render(key+":")+" "+value))
}

// Table prints fixed-width columns. A column value longer than its width
// is cut with "...".
type Table struct {
	Widths []int
}

func (t Table) cells(columns []string, sep string) string {
	var b strings.Builder
	for i, col := range columns {
		if i >= len(t.Widths) {
			break
		}
		w := t.Widths[i]
		if n := lipgloss.Width(col); n > w {
			if w > 3 {
				col = string([]rune(col)[:w-3]) + "..."
			} else {
				col = string([]rune(col)[:w])
			}
		} else {
			col += strings.Repeat(" ", w-n)
		}
		b.WriteString(col)
		if i < len(columns)-1 && i < len(t.Widths)-1 {
			b.WriteString(sep)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Header prints the header row and a separator.
func (t Table) Header(headers ...string) {
	fmt.Fprintln(Out, stepStyle.Render(keyStyle.Render(t.cells(headers, " │ "))))
	parts := make([]string, 0, len(t.Widths))
	for i := range headers {
		if i >= len(t.Widths) {
			break
		}
		parts = append(parts, strings.Repeat("─", t.Widths[i]))
	}
	fmt.Fprintln(Out, stepStyle.Render(infoStyle.Render(strings.Join(parts, "─┼─"))))
}

// Row prints one row.
func (t Table) Row(columns ...string) {
	fmt.Fprintln(Out, stepStyle.Render(t.cells(columns, " │ ")))
}
