// Package log builds the [slog.Handler]s installed by the CLI, and defines
// the attributes shared by engine, session, and watch log records.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace"

	charmlog "github.com/charmbracelet/log"

	"github.com/macropower/condfmt/pkg/cell"
)

type (
	Format string
	Level  string
)

const (
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"

	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

// Attribute keys.
const (
	KeyRule     = "rule"
	KeyCell     = "cell"
	KeyRange    = "range"
	KeyRevision = "revision"
	KeyTraceID  = "trace_id"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")

	AllFormats = []string{
		string(FormatJSON),
		string(FormatLogfmt),
		string(FormatText),
	}
	AllLevels = []string{
		string(LevelError),
		string(LevelWarn),
		string(LevelInfo),
		string(LevelDebug),
	}
)

// CreateHandlerWithStrings creates a [slog.Handler] from the --log-level and
// --log-format flag values.
func CreateHandlerWithStrings(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	lvl, err := parseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	f, err := parseFormat(logFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return CreateHandler(w, lvl, f), nil
}

// CreateHandler creates a [slog.Handler] writing to w. JSON records are
// written by [slog.JSONHandler]; text and logfmt records by charm log, in
// the color profile of w. Source locations are reported at debug level.
func CreateHandler(w io.Writer, lvl slog.Level, f Format) slog.Handler {
	if f == FormatJSON {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: lvl <= slog.LevelDebug,
			Level:     lvl,
		})
	}

	formatter := charmlog.TextFormatter
	if f == FormatLogfmt {
		formatter = charmlog.LogfmtFormatter
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(lvl), //nolint:gosec // G115: slog levels fit in an int32.
		Formatter:       formatter,
		ReportTimestamp: true,
		ReportCaller:    lvl <= slog.LevelDebug,
		TimeFormat:      time.StampMilli,
	})
	logger.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())

	return logger
}

func parseLevel(level string) (slog.Level, error) {
	switch Level(strings.ToLower(level)) {
	case LevelError:
		return slog.LevelError, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, level)
}

func parseFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if !slices.Contains(AllFormats, string(f)) {
		return "", fmt.Errorf("%w: %q", ErrUnknownLogFormat, format)
	}

	return f, nil
}

// Rule returns the attribute naming a rule id.
func Rule(id string) slog.Attr { return slog.String(KeyRule, id) }

// Cell returns the attribute naming a cell in A1 notation.
func Cell(a cell.Address) slog.Attr { return slog.String(KeyCell, a.String()) }

// Range returns the attribute naming a range in A1 notation.
func Range(r cell.Range) slog.Attr { return slog.String(KeyRange, r.String()) }

// Revision returns the attribute carrying an engine revision.
func Revision(rev uint64) slog.Attr { return slog.Uint64(KeyRevision, rev) }

// WithTrace returns logger annotated with the first 8 characters of the
// trace id of the span in ctx, or logger itself when there is no span.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}

	id := sc.TraceID().String()

	return logger.With(slog.String(KeyTraceID, id[:min(len(id), 8)]))
}

// WithContext is [WithTrace] applied to the default logger.
func WithContext(ctx context.Context) *slog.Logger {
	return WithTrace(ctx, slog.Default())
}
