package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
)

// seedFile bootstraps one site.
//
//	site: Raid
//	time_zone: Europe/Berlin
//	settings: {server_offset: 2, current_season: 5}
//	categories:
//	  - {name: VIP, color: "#ff0000", priority: 3}
//	events:
//	  - {title: Standup, date: 2024-01-01, time: "09:00", duration_hours: 0.5, recurrence: daily, category: VIP}
//	invites:
//	  - {role: leader, max_uses: 1}
type seedFile struct {
	Site       string         `yaml:"site"`
	TimeZone   string         `yaml:"time_zone"`
	Settings   *seedSettings  `yaml:"settings"`
	Categories []seedCategory `yaml:"categories"`
	Events     []seedEvent    `yaml:"events"`
	Invites    []seedInvite   `yaml:"invites"`
}

type seedSettings struct {
	ServerOffset  *int `yaml:"server_offset"`
	CurrentSeason *int `yaml:"current_season"`
}

type seedCategory struct {
	Name       string              `yaml:"name"`
	Color      string              `yaml:"color"`
	LabelColor *string             `yaml:"label_color"`
	Priority   *int                `yaml:"priority"`
	Icon       *string             `yaml:"icon"`
	IconColor  *string             `yaml:"icon_color"`
	Actions    []dto.ActionRequest `yaml:"actions"`
}

type seedEvent struct {
	Title         string  `yaml:"title"`
	Date          string  `yaml:"date"`
	Time          string  `yaml:"time"`
	TimeZone      string  `yaml:"time_zone"`
	DurationHours float64 `yaml:"duration_hours"`
	Recurrence    string  `yaml:"recurrence"`
	RepeatsUntil  *string `yaml:"repeats_until"`
	Category      string  `yaml:"category"`
	Icon          *string `yaml:"icon"`
	IconColor     *string `yaml:"icon_color"`
}

type seedInvite struct {
	Role    string `yaml:"role"`
	MaxUses *int   `yaml:"max_uses"`
}

func parseSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f seedFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	f.Site = strings.TrimSpace(f.Site)
	for i, ev := range f.Events {
		if ev.TimeZone == "" {
			f.Events[i].TimeZone = string(models.TimelineLocal)
		}
		if ev.Recurrence == "" {
			f.Events[i].Recurrence = string(models.RecurrenceNone)
		}
	}
	return &f, nil
}

type seedReport struct {
	Categories int
	Events     int
	Invites    []string
}

func applySeed(ctx context.Context, svc *Services, f *seedFile) (*seedReport, error) {
	site := f.Site
	if site == "" {
		site = svc.DefaultSite
	}
	tz := f.TimeZone
	if tz == "" {
		tz = svc.DefaultTZ
	}
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("seed time zone: %w", err)
		}
		loc = l
	}
	actor := operator(site)
	report := &seedReport{}

	if f.Settings != nil {
		req := dto.UpdateSettingsRequest{ServerOffset: f.Settings.ServerOffset, CurrentSeason: f.Settings.CurrentSeason}
		if _, err := svc.Settings.Update(ctx, actor, req); err != nil {
			return report, fmt.Errorf("settings: %w", err)
		}
	}

	categoryIDs := make(map[string]string, len(f.Categories))
	for _, c := range f.Categories {
		created, err := svc.Categories.Create(ctx, actor, site, dto.CategoryRequest{
			Name:       c.Name,
			Color:      c.Color,
			LabelColor: c.LabelColor,
			Priority:   c.Priority,
			Icon:       c.Icon,
			IconColor:  c.IconColor,
			Actions:    c.Actions,
		})
		if err != nil {
			return report, fmt.Errorf("category %q: %w", c.Name, err)
		}
		categoryIDs[c.Name] = created.ID
		report.Categories++
	}

	for _, e := range f.Events {
		req := dto.EventRequest{
			Title:         e.Title,
			Date:          e.Date,
			Time:          e.Time,
			TimeZone:      models.Timeline(e.TimeZone),
			DurationHours: e.DurationHours,
			Recurrence:    models.Recurrence(e.Recurrence),
			RepeatsUntil:  e.RepeatsUntil,
			Icon:          e.Icon,
			IconColor:     e.IconColor,
		}
		if e.Category != "" {
			id, ok := categoryIDs[e.Category]
			if !ok {
				return report, fmt.Errorf("event %q: unknown category %q", e.Title, e.Category)
			}
			req.CategoryID = &id
		}
		if _, err := svc.Events.Create(ctx, actor, site, req, loc); err != nil {
			return report, fmt.Errorf("event %q: %w", e.Title, err)
		}
		report.Events++
	}

	for _, inv := range f.Invites {
		code, err := svc.Invites.Create(ctx, actor, site, dto.CreateInviteRequest{Role: models.UserRole(inv.Role), MaxUses: inv.MaxUses})
		if err != nil {
			return report, fmt.Errorf("invite %s: %w", inv.Role, err)
		}
		report.Invites = append(report.Invites, code.Code)
	}
	return report, nil
}

func newSeedCommand(open opener) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create categories, events and invites from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if path != "-" {
				fh, err := os.Open(path)
				if err != nil {
					return err
				}
				defer fh.Close()
				in = fh
			}
			f, err := parseSeed(in)
			if err != nil {
				return err
			}

			svc, release, err := open(cmd)
			if err != nil {
				return err
			}
			defer release()

			report, err := applySeed(cmd.Context(), svc, f)
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "categories: %d, events: %d\n", report.Categories, report.Events)
				for _, code := range report.Invites {
					fmt.Fprintf(cmd.OutOrStdout(), "invite %s\n", code)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "seed file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
