package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/portmock/pkg/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a config file without starting any listener",
		Long: `Validate parses a YAML, TOML or JSON config file, expands environment
references, and checks every listener and mock, including script
compilation. All problems are reported at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}
			mocks := 0
			for _, l := range f.Listeners {
				mocks += len(l.Mocks)
			}
			printf(cmd.OutOrStdout(), "%s: %d listener(s), %d mock(s) OK\n", args[0], len(f.Listeners), mocks)
			return nil
		},
	}
}
