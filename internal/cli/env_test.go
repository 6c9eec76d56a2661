package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/internal/cli"
)

func TestBindEnvVars(t *testing.T) {
	tcs := map[string]struct {
		envVars       map[string]string
		wantLogLevel  string
		wantLogFormat string
		wantRules     string
		wantSheet     string
		args          []string
	}{
		"environment variables are bound when no args provided": {
			envVars: map[string]string{
				"CONDFMT_LOG_LEVEL":  "debug",
				"CONDFMT_LOG_FORMAT": "json",
				"CONDFMT_RULES":      "/etc/condfmt/rules.yaml",
				"CONDFMT_SHEET":      "Q3",
			},
			args:          []string{},
			wantLogLevel:  "debug",
			wantLogFormat: "json",
			wantRules:     "/etc/condfmt/rules.yaml",
			wantSheet:     "Q3",
		},
		"command line args take precedence over environment variables": {
			envVars: map[string]string{
				"CONDFMT_LOG_LEVEL":  "debug",
				"CONDFMT_LOG_FORMAT": "json",
				"CONDFMT_SHEET":      "Q3",
			},
			args:          []string{"--log-level", "error", "--log-format", "text", "--sheet", "Q4"},
			wantLogLevel:  "error",
			wantLogFormat: "text",
			wantSheet:     "Q4",
		},
		"partial environment variable override": {
			envVars: map[string]string{
				"CONDFMT_LOG_LEVEL": "warn",
			},
			args:          []string{"--log-format", "json", "-r", "rules.yaml"},
			wantLogLevel:  "warn",
			wantLogFormat: "json",
			wantRules:     "rules.yaml",
		},
		"no environment variables uses defaults": {
			envVars:       map[string]string{},
			args:          []string{},
			wantLogLevel:  "info", // Default value.
			wantLogFormat: "text", // Default value.
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()
			cmd.SetArgs(tc.args)

			// Parse flags (this triggers environment variable binding).
			err := cmd.ParseFlags(tc.args)
			require.NoError(t, err)

			for flag, want := range map[string]string{
				"log-level":  tc.wantLogLevel,
				"log-format": tc.wantLogFormat,
				"rules":      tc.wantRules,
				"sheet":      tc.wantSheet,
			} {
				got, err := cmd.Flags().GetString(flag)
				require.NoError(t, err)
				assert.Equal(t, want, got, flag)
			}
		})
	}
}

func TestBindEnvVarsSubcommand(t *testing.T) {
	t.Setenv("CONDFMT_OUTPUT", "json")

	cmd := cli.NewRootCmd()

	evalCmd, _, err := cmd.Find([]string{"eval"})
	require.NoError(t, err)

	output, err := evalCmd.Flags().GetString("output")
	require.NoError(t, err)
	assert.Equal(t, "json", output)
}

// Test that flag usage strings are updated to include environment variable names.
func TestEnvironmentVariableUsageUpdate(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Contains(t, logLevelFlag.Usage, "$CONDFMT_LOG_LEVEL")

	rulesFlag := cmd.PersistentFlags().Lookup("rules")
	require.NotNil(t, rulesFlag)
	assert.Contains(t, rulesFlag.Usage, "$CONDFMT_RULES")

	watchCmd, _, err := cmd.Find([]string{"eval"})
	require.NoError(t, err)

	watchFlag := watchCmd.Flags().Lookup("watch")
	require.NotNil(t, watchFlag)
	assert.Contains(t, watchFlag.Usage, "$CONDFMT_WATCH")
}
