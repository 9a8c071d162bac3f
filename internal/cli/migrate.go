package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := open(cmd)
			if err != nil {
				return err
			}
			defer release()

			applied, err := svc.Migrate(cmd.Context())
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			}
			return nil
		},
	}
}
