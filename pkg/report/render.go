package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/macropower/condfmt/pkg/yaml"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var (
	// ErrUnknownFormat indicates an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")

	AllFormats = []string{
		string(FormatTable),
		string(FormatJSON),
		string(FormatYAML),
	}
)

// ParseFormat returns the [Format] named by s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !slices.Contains(AllFormats, string(f)) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}

	return f, nil
}

// Renderer writes views in one [Format].
type Renderer struct {
	w           io.Writer
	highlighter *highlighter
	title       cases.Caser
	format      Format
	colored     bool
}

// NewRenderer creates a [Renderer]. When colored is set, tables are styled
// and JSON or YAML output is syntax highlighted.
func NewRenderer(w io.Writer, format Format, colored bool) *Renderer {
	r := &Renderer{
		w:       w,
		format:  format,
		colored: colored,
		title:   cases.Title(language.English),
	}

	if colored && format != FormatTable {
		r.highlighter = newHighlighter(w, format)
	}

	return r
}

// Cells writes evaluation results. Evaluated is the number of cells that
// were evaluated, reported in the table footer.
func (r *Renderer) Cells(cells []Cell, evaluated int) error {
	if r.format != FormatTable {
		return r.encode(cells)
	}

	t := r.newTable().Headers("Cell", "Value", "Rules")
	for _, c := range cells {
		descs := make([]string, 0, len(c.Matches))
		for _, m := range c.Matches {
			descs = append(descs, describe(m))
		}

		t.Row(c.Cell, formatValue(c), strings.Join(descs, "\n"))
	}

	_, err := fmt.Fprintf(r.w, "%s\n%s of %s %s matched\n",
		t.Render(),
		humanize.Comma(int64(len(cells))),
		humanize.Comma(int64(evaluated)),
		pluralize(evaluated, "cell", "cells"),
	)
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

// Explanation writes an inspection view.
func (r *Renderer) Explanation(ex Explanation) error {
	if r.format != FormatTable {
		return r.encode(ex)
	}

	label := lipgloss.NewStyle()
	if r.colored {
		label = label.Bold(true)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", label.Render("Cell:"), ex.Result.Cell)
	fmt.Fprintf(&b, "%s %s (%s)\n", label.Render("Value:"), formatValue(ex.Result), ex.Result.Kind)
	fmt.Fprintf(&b, "%s %s\n", label.Render("Candidates:"), strings.Join(ex.Candidates, ", "))
	fmt.Fprintf(&b, "%s %d\n", label.Render("Revision:"), ex.Revision)

	if len(ex.Rules) == 0 {
		b.WriteString("No rules matched.\n")
	} else {
		t := r.newTable().Headers("Priority", "Rule", "Kind", "Condition", "Result")
		for i, rl := range ex.Rules {
			t.Row(
				strconv.Itoa(rl.Priority),
				rl.ID,
				r.title.String(strings.ReplaceAll(rl.Kind, "-", " ")),
				rl.Summary,
				describe(ex.Result.Matches[i]),
			)
		}

		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.w, b.String())
	if err != nil {
		return fmt.Errorf("write explanation: %w", err)
	}

	return nil
}

// Rules writes registered rules.
func (r *Renderer) Rules(rules []Rule) error {
	if r.format != FormatTable {
		return r.encode(rules)
	}

	t := r.newTable().Headers("Priority", "Rule", "Kind", "Condition", "Ranges", "Stop")
	for _, rl := range rules {
		stop := ""
		if rl.StopIfTrue {
			stop = "yes"
		}

		t.Row(
			strconv.Itoa(rl.Priority),
			rl.ID,
			r.title.String(strings.ReplaceAll(rl.Kind, "-", " ")),
			rl.Summary,
			strings.Join(rl.Ranges, ", "),
			stop,
		)
	}

	_, err := fmt.Fprintln(r.w, t.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func (r *Renderer) encode(v any) error {
	if r.highlighter == nil {
		return r.encodeTo(r.w, v)
	}

	var buf bytes.Buffer

	err := r.encodeTo(&buf, v)
	if err != nil {
		return err
	}

	err = r.highlighter.Write(r.w, buf.Bytes())
	if err != nil {
		return fmt.Errorf("highlight %s: %w", r.format, err)
	}

	return nil
}

func (r *Renderer) encodeTo(w io.Writer, v any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		err = enc.Close()
		if err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}

		return nil
	case FormatTable:
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, r.format)
}

func (r *Renderer) newTable() *table.Table {
	header := lipgloss.NewStyle().Padding(0, 1)
	body := lipgloss.NewStyle().Padding(0, 1)
	border := lipgloss.NewStyle()

	if r.colored {
		header = header.Bold(true).Foreground(lipgloss.Color("12"))
		border = border.Foreground(lipgloss.Color("8"))
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}

			return body
		})
}

func describe(m Match) string {
	var details []string

	if m.Rank != nil {
		details = append(details, fmt.Sprintf("rank %d/%d", m.Rank.Position, m.Rank.Total))
	}
	if m.Percentile != nil {
		details = append(details, humanize.Ordinal(*m.Percentile)+" percentile")
	}
	if m.Occurrences != nil {
		details = append(details, fmt.Sprintf("%d occurrences", *m.Occurrences))
	}
	if m.Fraction != nil {
		details = append(details, fmt.Sprintf("scale %.2f", *m.Fraction))
	}
	if m.Icon != nil {
		details = append(details, fmt.Sprintf("icon %d", *m.Icon))
	}

	if len(details) == 0 {
		return m.Rule
	}

	return fmt.Sprintf("%s (%s)", m.Rule, strings.Join(details, ", "))
}

func formatValue(c Cell) string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case float64:
		return humanize.Commaf(v)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}

	return fmt.Sprint(c.Value)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}
