package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/groupcal-api/internal/models"
)

const idSeparator = "-"

// NewID returns a fresh identifier for a stored record. Stored ids never contain the
// separator so occurrence ids can always be split back to their anchor.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), idSeparator, "")
}

// OccurrenceID builds the id of a synthesized occurrence of anchorID starting at start.
func OccurrenceID(anchorID string, start time.Time) string {
	return anchorID + idSeparator + strconv.FormatInt(start.UnixMilli(), 10)
}

// AnchorID returns the stored id an occurrence id was derived from. Ids without the
// separator are returned unchanged.
func AnchorID(id string) string {
	anchor, _, _ := strings.Cut(id, idSeparator)
	return anchor
}

// IsOccurrenceID reports whether id carries an occurrence suffix.
func IsOccurrenceID(id string) bool {
	return strings.Contains(id, idSeparator)
}

// ResolveAnchor finds the stored event an id refers to, following occurrence ids back to their anchor.
func ResolveAnchor(events []models.Event, id string) (models.Event, bool) {
	anchor := AnchorID(id)
	for _, e := range events {
		if e.ID == anchor && !e.IsRecurringInstance {
			return e, true
		}
	}
	return models.Event{}, false
}

func occurrence(anchor models.Event, at time.Time) models.Event {
	o := anchor
	o.Start = at.UTC()
	o.ID = OccurrenceID(anchor.ID, at)
	o.IsRecurringInstance = true
	return o
}
