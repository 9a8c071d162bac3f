package calendar

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// Granularity selects how a display time is rendered.
type Granularity int

const (
	// GranularitySeconds renders HH:MM:SS on a 24-hour clock, used for live clock readouts.
	GranularitySeconds Granularity = iota
	// GranularityMinutes renders HH:MM on a 24-hour clock.
	GranularityMinutes
)

const (
	layoutSeconds  = "15:04:05"
	layoutMinutes  = "15:04"
	layoutFallback = "3:04 PM"
)

// Reconciler maps stored instants onto the viewer's local clock or the server clock.
type Reconciler struct {
	loc        *time.Location
	logger     *zap.Logger
	onFallback func(timeline Timeline)
}

// ReconcilerOption customises a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithFallbackHook registers fn to be called whenever a timeline cannot be resolved.
func WithFallbackHook(fn func(timeline Timeline)) ReconcilerOption {
	return func(r *Reconciler) {
		r.onFallback = fn
	}
}

// NewReconciler builds a reconciler for a viewer located in loc. A nil loc means UTC.
func NewReconciler(loc *time.Location, logger *zap.Logger, opts ...ReconcilerOption) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{loc: loc, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the viewer's location.
func (r *Reconciler) Location() *time.Location {
	return r.loc
}

// ServerZone returns the fixed zone for an offset in whole hours.
func ServerZone(offsetHours int) *time.Location {
	return time.FixedZone("server", offsetHours*3600)
}

// ValidOffset reports whether offsetHours is a real UTC offset.
func ValidOffset(offsetHours int) bool {
	return offsetHours >= models.MinServerOffset && offsetHours <= models.MaxServerOffset
}

// DisplayTime returns instant as seen on the given timeline.
// An unresolvable server timeline falls back to the local clock.
func (r *Reconciler) DisplayTime(instant time.Time, timeline Timeline, offset *int) time.Time {
	t, _ := r.resolve(instant, timeline, offset)
	return t
}

// Format renders instant on the given timeline. When the timeline cannot be resolved the
// result uses the 12-hour local fallback instead of the requested granularity.
func (r *Reconciler) Format(instant time.Time, timeline Timeline, offset *int, g Granularity) string {
	t, ok := r.resolve(instant, timeline, offset)
	if !ok {
		return t.Format(layoutFallback)
	}
	if g == GranularitySeconds {
		return t.Format(layoutSeconds)
	}
	return t.Format(layoutMinutes)
}

// IsSameDisplayDay reports whether instant falls on the calendar day of day when viewed on timeline.
// Only the year, month and day fields of day are considered.
func (r *Reconciler) IsSameDisplayDay(instant, day time.Time, timeline Timeline, offset *int) bool {
	t := r.DisplayTime(instant, timeline, offset)
	return sameDate(t, day)
}

// CellTime returns the HH:MM label of instant for a month grid cell, or false when the
// occurrence does not belong to that cell on the given timeline.
func (r *Reconciler) CellTime(instant, day time.Time, timeline Timeline, offset *int) (string, bool) {
	t := r.DisplayTime(instant, timeline, offset)
	if !sameDate(t, day) {
		return "", false
	}
	return t.Format(layoutMinutes), true
}

func (r *Reconciler) resolve(instant time.Time, timeline Timeline, offset *int) (time.Time, bool) {
	switch timeline {
	case TimelineServer:
		if offset != nil && ValidOffset(*offset) {
			return instant.In(ServerZone(*offset)), true
		}
		fields := []zap.Field{zap.String("timeline", string(timeline)), zap.Time("instant", instant)}
		if offset == nil {
			fields = append(fields, zap.String("reason", "server offset not configured"))
		} else {
			fields = append(fields, zap.Int("offset", *offset), zap.String("reason", "server offset out of range"))
		}
		r.fallback(timeline, fields)
		return instant.In(r.loc), false
	case TimelineLocal, "":
		return instant.In(r.loc), true
	default:
		r.fallback(timeline, []zap.Field{zap.String("timeline", string(timeline)), zap.String("reason", "unknown timeline")})
		return instant.In(r.loc), false
	}
}

func (r *Reconciler) fallback(timeline Timeline, fields []zap.Field) {
	r.logger.Warn("reconciliation", fields...)
	if r.onFallback != nil {
		r.onFallback(timeline)
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
