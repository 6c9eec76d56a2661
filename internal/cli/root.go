package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/condfmt/api"
	"github.com/macropower/condfmt/api/v1beta1/rulesets"
	"github.com/macropower/condfmt/pkg/log"
	"github.com/macropower/condfmt/pkg/session"
)

const (
	cmdName = "condfmt"
	cmdDesc = `Incremental conditional formatting engine for spreadsheets.`

	cmdExamples = `  # Write an example rule set to the current directory:
  condfmt init

  # Print the cells of a workbook matched by the nearest rule set:
  condfmt eval ./budget.xlsx

  # Explain a single cell:
  condfmt explain ./budget.xlsx B7`
)

// ErrNoRules indicates that no rule-set file was given or found.
var ErrNoRules = errors.New("no rule-set file found")

type RootArgs struct {
	shutdownTracing func(context.Context) error

	LogLevel      string
	LogFormat     string
	Rules         string
	Sheet         string
	TraceEndpoint string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVarP(&ra.Rules, "rules", "r", "",
			fmt.Sprintf("Path to the rule-set file, default is the nearest of %v", rulesets.FileNames))
	cmd.PersistentFlags().
		StringVar(&ra.Sheet, "sheet", "", "Worksheet to read from .xlsx files, default is the active sheet")
	cmd.PersistentFlags().
		StringVar(&ra.TraceEndpoint, "trace-endpoint", "", "OTLP gRPC endpoint to export traces to")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkPersistentFlagFilename("rules", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark rules flag: %w", err))
	}
}

// rulesPath returns the rule-set path from the flag, or the nearest rule-set
// file found walking up from near.
func (ra *RootArgs) rulesPath(near string) (string, error) {
	if ra.Rules != "" {
		return ra.Rules, nil
	}

	path, err := api.FindConfigFile(near, rulesets.FileNames)
	if err != nil {
		return "", fmt.Errorf("find rule-set file: %w", err)
	}

	if path == "" {
		return "", fmt.Errorf("%w near %q, use --rules", ErrNoRules, near)
	}

	slog.Debug("found rule-set file", slog.String("path", path))

	return path, nil
}

// openSession loads the rule set and the value file at valuesPath.
func (ra *RootArgs) openSession(valuesPath string) (*session.Session, error) {
	rulesPath, err := ra.rulesPath(valuesPath)
	if err != nil {
		return nil, err
	}

	s, err := session.Open(rulesPath, valuesPath,
		session.WithSheet(ra.Sheet),
		session.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", valuesPath, err)
	}

	return s, nil
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		Example:            cmdExamples,
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
		SilenceUsage:       true,
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewEvalCmd(NewEvalArgs(args)),
		NewExplainCmd(NewExplainArgs(args)),
		NewRulesCmd(NewRulesArgs(args)),
		NewServeMCPCmd(NewServeMCPArgs(args)),
		NewSchemaCmd(),
		NewInitCmd(NewInitArgs(args)),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		if ra.TraceEndpoint != "" {
			ra.shutdownTracing, err = setupTracing(cmd.Context(), ra.TraceEndpoint)
			if err != nil {
				return fmt.Errorf("set up tracing: %w", err)
			}
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if ra.shutdownTracing == nil {
			return nil
		}

		err := ra.shutdownTracing(context.WithoutCancel(cmd.Context()))
		if err != nil {
			return fmt.Errorf("shut down tracing: %w", err)
		}

		return nil
	}
}
