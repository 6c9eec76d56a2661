package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/log"
	"github.com/macropower/condfmt/pkg/session"
	"github.com/macropower/condfmt/pkg/watch"
)

const (
	evalExamples = `  # Evaluate the used area of the first sheet:
  condfmt eval ./budget.xlsx

  # Evaluate two ranges of another sheet with an explicit rule set:
  condfmt eval ./budget.xlsx B2:B40 D2:D40 --sheet Q3 --rules ./rules.yaml

  # Print every cell, matched or not, as JSON:
  condfmt eval ./grid.yaml --all -o json

  # Re-evaluate whenever the workbook or the rule set changes:
  condfmt eval ./budget.xlsx --watch`

	// logRingSize is the number of log records kept between redraws in
	// watch mode.
	logRingSize = 100
)

type EvalArgs struct {
	*RootArgs
	OutputArgs

	Values string
	Ranges []string
	All    bool
	Watch  bool
}

func NewEvalArgs(rootArgs *RootArgs) *EvalArgs {
	return &EvalArgs{
		RootArgs: rootArgs,
	}
}

func (ea *EvalArgs) AddFlags(cmd *cobra.Command) {
	ea.OutputArgs.AddFlags(cmd)

	cmd.Flags().BoolVarP(&ea.All, "all", "a", false, "Also print cells that matched no rule")
	cmd.Flags().BoolVarP(&ea.Watch, "watch", "w", false, "Watch the workbook and rule set and re-evaluate on changes")
}

func NewEvalCmd(ea *EvalArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "eval VALUES [RANGE...]",
		Short:   "Evaluate the rules against a workbook and print the matching cells",
		Example: evalExamples,
		Args:    cobra.MinimumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return []cobra.Completion{"xlsx", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ea.Values = args[0]
			ea.Ranges = args[1:]

			return runEval(cmd, ea)
		},
	}
	ea.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runEval(cmd *cobra.Command, ea *EvalArgs) error {
	ranges, err := parseRanges(ea.Ranges)
	if err != nil {
		return err
	}

	r, err := ea.renderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var logBuf *log.Ring

	if ea.Watch {
		// Logs written while the screen is redrawn would be cleared with it,
		// so they are held and printed after each redraw.
		logBuf = log.NewRing(logRingSize)

		logHandler, err := log.CreateHandlerWithStrings(logBuf, ea.LogLevel, ea.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))
	}

	s, err := ea.openSession(ea.Values)
	if err != nil {
		return err
	}

	draw := func() error {
		rs := ranges
		if len(rs) == 0 {
			bounds, ok := s.Bounds()
			if ok {
				rs = []cell.Range{bounds}
			}
		}

		cells, evaluated, err := s.Evaluate(rs, ea.All)
		if err != nil {
			return err //nolint:wrapcheck // Return the original error.
		}

		return r.Cells(cells, evaluated) //nolint:wrapcheck // Return the original error.
	}

	if !ea.Watch {
		return draw()
	}

	return watchEval(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), s, logBuf, draw)
}

// watchEval redraws on every change to the session's files until ctx is done.
func watchEval(
	ctx context.Context,
	stdout, stderr io.Writer,
	s *session.Session,
	logBuf *log.Ring,
	draw func() error,
) error {
	w, err := watch.New([]string{s.RulesPath(), s.ValuesPath()})
	if err != nil {
		return fmt.Errorf("watch files: %w", err)
	}

	defer func() {
		err := w.Close()
		if err != nil {
			slog.Error("close watcher", slog.Any("error", err))
		}
	}()

	out := termenv.NewOutput(stdout)

	redraw := func(ctx context.Context) {
		out.ClearScreen()

		err := draw()
		if err != nil {
			log.WithContext(ctx).ErrorContext(ctx, "evaluate", slog.Any("error", err))
		}

		flushLogs(stderr, logBuf)
	}

	redraw(ctx)

	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		logger := log.WithContext(ctx)

		for _, path := range changed {
			switch path {
			case s.RulesPath():
				err := s.ReloadRules()
				if err != nil {
					logger.ErrorContext(ctx, "reload rules, keeping previous rules",
						slog.String("path", path),
						slog.Any("error", err),
					)
				}

			case s.ValuesPath():
				dirty, err := s.ReloadValues()
				if err != nil {
					logger.ErrorContext(ctx, "reload values, keeping previous values",
						slog.String("path", path),
						slog.Any("error", err),
					)

					continue
				}

				logger.InfoContext(ctx, "values changed", slog.Int("cells", len(dirty)))
			}
		}

		redraw(ctx)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err //nolint:wrapcheck // Return the original error.
}

func flushLogs(w io.Writer, buf *log.Ring) {
	_, err := buf.Flush(w)
	if err != nil {
		panic(err)
	}
}
