package calendar

import (
	"sort"
	"time"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// DefaultUpcomingLimit is the number of feed entries shown when no limit is given.
const DefaultUpcomingLimit = 5

// UpcomingOptions parameterises Upcoming.
type UpcomingOptions struct {
	Now            time.Time
	Location       *time.Location
	LookaheadDays  int
	Limit          int
	PriorityFilter *int
}

// Upcoming expands every event over the lookahead window, orders the occurrences by start,
// keeps the first Limit of them and only then applies the priority filter. Filtering after
// truncation means fewer than Limit entries may be returned even when later occurrences match.
func Upcoming(events []models.Event, categories []models.Category, opts UpcomingOptions) ([]models.Event, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultUpcomingLimit
	}
	w := Window{Now: opts.Now, LookaheadDays: opts.LookaheadDays, Location: opts.Location}

	var all []models.Event
	for _, e := range events {
		occ, err := ExpandLookahead(e, w)
		if err != nil {
			return nil, err
		}
		all = append(all, occ...)
	}

	SortByStart(all)
	if len(all) > opts.Limit {
		all = all[:opts.Limit]
	}

	if opts.PriorityFilter == nil {
		return all, nil
	}
	byID := IndexCategories(categories)
	filtered := make([]models.Event, 0, len(all))
	for _, e := range all {
		if Priority(e, byID) == *opts.PriorityFilter {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// SortByStart orders events by start, breaking ties by id so results are stable across calls.
func SortByStart(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
}

// Priority returns the priority of the event's category. Uncategorised events and dangling
// category references get the default priority.
func Priority(e models.Event, categories map[string]models.Category) int {
	if c, ok := lookupCategory(e, categories); ok {
		return c.EffectivePriority()
	}
	return models.DefaultPriority
}

func lookupCategory(e models.Event, categories map[string]models.Category) (models.Category, bool) {
	if e.CategoryID == nil {
		return models.Category{}, false
	}
	c, ok := categories[*e.CategoryID]
	return c, ok
}

// IndexCategories builds the id lookup used by Priority and ResolveStyle.
func IndexCategories(categories []models.Category) map[string]models.Category {
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}
