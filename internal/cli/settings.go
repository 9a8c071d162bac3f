package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
)

func newSettingsCommand(open opener) *cobra.Command {
	settings := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change install-wide settings",
	}

	var offset, season int
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the server offset or the current season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req dto.UpdateSettingsRequest
			if cmd.Flags().Changed("server-offset") {
				req.ServerOffset = &offset
			}
			if cmd.Flags().Changed("season") {
				req.CurrentSeason = &season
			}
			if req.ServerOffset == nil && req.CurrentSeason == nil {
				return errors.New("nothing to change: pass --server-offset and/or --season")
			}

			svc, release, err := open(cmd)
			if err != nil {
				return err
			}
			defer release()

			out, err := svc.Settings.Update(cmd.Context(), operator(models.GlobalScope), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server offset UTC%+d, season %d\n", out.ServerOffset, out.CurrentSeason)
			return nil
		},
	}
	set.Flags().IntVar(&offset, "server-offset", 0, "hours the server clock runs ahead of UTC (-12..14)")
	set.Flags().IntVar(&season, "season", 0, "current season number")

	settings.AddCommand(set)
	return settings
}
