package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// highlighter writes JSON or YAML documents with terminal syntax colors.
type highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

func newHighlighter(w io.Writer, format Format) *highlighter {
	lexer := lexers.Get(string(format))
	if lexer == nil {
		lexer = lexers.Fallback
	}

	// Colors were requested, so a profile without colors still gets the
	// basic palette.
	formatterName := "terminal8"
	switch termenv.NewOutput(w).EnvColorProfile() {
	case termenv.TrueColor:
		formatterName = "terminal16m"
	case termenv.ANSI256:
		formatterName = "terminal256"
	case termenv.ANSI, termenv.Ascii:
	}

	styleName := "github"
	if lipgloss.HasDarkBackground() {
		styleName = "monokai"
	}

	return &highlighter{
		lexer:     chroma.Coalesce(lexer),
		formatter: formatters.Get(formatterName),
		style:     styles.Get(styleName),
	}
}

// Write highlights src and writes it to w.
func (h *highlighter) Write(w io.Writer, src []byte) error {
	it, err := h.lexer.Tokenise(nil, string(src))
	if err != nil {
		return fmt.Errorf("lexer tokenize: %w", err)
	}

	var buf bytes.Buffer

	err = h.formatter.Format(&buf, h.style, it)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	_, err = buf.WriteTo(w)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
