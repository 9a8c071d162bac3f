package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/noah-isme/groupcal-api/internal/dto"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func newUpcomingCommand(open opener) *cobra.Command {
	var (
		site  string
		q     dto.FeedQuery
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Print the next occurrences of a site",
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
			feed, err := svc.Feed.Feed(cmd.Context(), site, q)
			if err != nil {
				return err
			}
			renderUpcoming(cmd.OutOrStdout(), feed, plain)
			return nil
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "site to read (default: configured default site)")
	cmd.Flags().StringVar(&q.TZ, "tz", "", "IANA time zone of the reader")
	cmd.Flags().StringVar(&q.Timeline, "timeline", "local", "local or server")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "number of occurrences")
	cmd.Flags().BoolVar(&plain, "plain", false, "tab separated output without colors")
	return cmd
}

func renderUpcoming(w io.Writer, feed *dto.FeedResponse, plain bool) {
	if len(feed.Upcoming) == 0 {
		fmt.Fprintf(w, "nothing scheduled on %s\n", feed.Site)
		return
	}

	rows := make([][]string, 0, len(feed.Upcoming))
	for _, o := range feed.Upcoming {
		rows = append(rows, []string{
			o.Start.Format("Mon 02 Jan"),
			o.DisplayStart + "-" + o.DisplayEnd,
			o.Title,
			o.Style.CategoryName,
			o.Countdown,
		})
	}

	if plain {
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r[0], r[1], r[2], r[3], r[4])
		}
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("DAY", fmt.Sprintf("TIME (%s)", feed.Timeline), "EVENT", "CATEGORY", "IN").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 2 && row >= 0 && row < len(feed.Upcoming) {
				if color := feed.Upcoming[row].Style.Color; color != "" {
					style = style.Foreground(lipgloss.Color(color))
				}
			}
			return style
		})
	fmt.Fprintln(w, t.Render())
}
