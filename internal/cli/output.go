package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/report"
)

// OutputArgs selects how results are printed.
type OutputArgs struct {
	Format  string
	NoColor bool
}

func (oa *OutputArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&oa.Format, "output", "o", string(report.FormatTable),
		fmt.Sprintf("Output format, one of: %s", report.AllFormats))
	cmd.Flags().BoolVar(&oa.NoColor, "no-color", false, "Disable colored output")

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(report.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

// renderer returns a [report.Renderer] writing to w. Output is colored only
// when w is a terminal.
func (oa *OutputArgs) renderer(w io.Writer) (*report.Renderer, error) {
	format, err := report.ParseFormat(oa.Format)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return report.NewRenderer(w, format, !oa.NoColor && isTerminal(w)), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // File descriptors fit in an int.
}

// parseRanges parses A1 ranges given as arguments.
func parseRanges(args []string) ([]cell.Range, error) {
	ranges := make([]cell.Range, 0, len(args))

	for _, arg := range args {
		r, err := cell.ParseRange(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", arg, err)
		}

		ranges = append(ranges, r)
	}

	return ranges, nil
}
