package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
)

func newInviteCommand(open opener) *cobra.Command {
	invite := &cobra.Command{
		Use:   "invite",
		Short: "Manage invite codes",
	}

	var (
		site    string
		role    string
		maxUses int
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Mint an invite code for a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := open(cmd)
			if err != nil {
				return err
			}
			defer release()

			if site == "" {
				site = svc.DefaultSite
			}
			req := dto.CreateInviteRequest{Role: models.UserRole(role)}
			if maxUses > 0 {
				req.MaxUses = &maxUses
			}
			code, err := svc.Invites.Create(cmd.Context(), operator(site), site, req)
			if err != nil {
				return err
			}
			uses := "unlimited"
			if code.UsesRemaining != nil {
				uses = fmt.Sprintf("%d", *code.UsesRemaining)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tsite=%s role=%s uses=%s\n", code.Code, code.Site, code.Role, uses)
			return nil
		},
	}
	create.Flags().StringVar(&site, "site", "", "site the code joins (default: configured default site)")
	create.Flags().StringVar(&role, "role", string(models.RoleUser), "role granted: admin, leader or user")
	create.Flags().IntVar(&maxUses, "max-uses", 0, "number of redemptions, 0 for unlimited")

	invite.AddCommand(create)
	return invite
}
