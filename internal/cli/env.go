package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars lets every local and persistent flag of cmd be set through a
// CONDFMT_<FLAG> environment variable, e.g. CONDFMT_LOG_LEVEL for
// --log-level or CONDFMT_RULES for --rules. Flags given on the command line
// win over the environment, which wins over defaults. The variable name is
// appended to each flag's usage so it shows up in help output.
//
// Call it once flags are defined and before the command executes.
func bindEnvVars(cmd *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		fs.VisitAll(bindFlagToEnv)
	}
}

func bindFlagToEnv(flag *pflag.Flag) {
	name := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, name) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, name)
	}

	if flag.Changed {
		return
	}

	value, ok := os.LookupEnv(name)
	if !ok {
		return
	}

	// An unparsable value keeps the default.
	if err := flag.Value.Set(value); err != nil {
		slog.Error("ignoring invalid environment variable",
			slog.String("flag", flag.Name),
			slog.String("env", name),
			slog.String("value", value),
			slog.Any("error", err),
		)
	}
}

// flagToEnvName maps "log-level" to "CONDFMT_LOG_LEVEL".
func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
