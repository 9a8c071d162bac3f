package calendar

import (
	"sync"
	"time"

	"github.com/noah-isme/groupcal-api/internal/models"
)

type memoKey struct {
	version int64
	year    int
	month   time.Month
	loc     string
}

// MonthMemo remembers MonthOccurrences results per events version, month and location.
// Entries of older versions are dropped as soon as a newer version is requested.
type MonthMemo struct {
	mu      sync.Mutex
	latest  int64
	entries map[memoKey][]models.Event
}

// NewMonthMemo creates an empty memo.
func NewMonthMemo() *MonthMemo {
	return &MonthMemo{entries: make(map[memoKey][]models.Event)}
}

// Occurrences returns the memoized month expansion for version, computing it on a miss.
func (m *MonthMemo) Occurrences(version int64, events []models.Event, year int, month time.Month, loc *time.Location) ([]models.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	key := memoKey{version: version, year: year, month: month, loc: loc.String()}

	m.mu.Lock()
	if version > m.latest {
		m.latest = version
		m.entries = make(map[memoKey][]models.Event)
	}
	if cached, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return cloneEvents(cached), nil
	}
	m.mu.Unlock()

	all, err := MonthOccurrences(events, year, month, loc)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if version == m.latest {
		m.entries[key] = all
	}
	m.mu.Unlock()
	return cloneEvents(all), nil
}

func cloneEvents(in []models.Event) []models.Event {
	if in == nil {
		return nil
	}
	out := make([]models.Event, len(in))
	copy(out, in)
	return out
}
