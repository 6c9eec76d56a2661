package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/condfmt/api"
	"github.com/macropower/condfmt/api/v1beta1/rulesets"
)

type InitArgs struct {
	*RootArgs

	Force bool
}

func NewInitArgs(rootArgs *RootArgs) *InitArgs {
	return &InitArgs{
		RootArgs: rootArgs,
	}
}

func NewInitCmd(ia *InitArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write an example rule set",
		Long: fmt.Sprintf("Write an example rule set to DIR/%s, default is the current directory.\n\n"+
			"An existing file is kept unless --force is set, in which case it is backed up first.",
			rulesets.FileNames[0]),
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			path := filepath.Join(dir, rulesets.FileNames[0])

			err := api.WriteDefaultFile(path, rulesets.Example, ia.Force, "rule set")
			if err != nil {
				return fmt.Errorf("write rule set: %w", err)
			}

			return nil
		},
	}
	cmd.Flags().BoolVarP(&ia.Force, "force", "f", false, "Replace an existing rule set")

	bindEnvVars(cmd)

	return cmd
}
