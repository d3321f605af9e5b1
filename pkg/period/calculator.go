package period

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// StartOf returns the start instant of the period of the given cadence that
// contains t. Boundaries are aligned to the anchor: weekly and biweekly periods
// keep the anchor's weekday phase, monthly periods keep the anchor's day of
// month (clamped to the last day of shorter months). The result is the start of
// a local day in loc, expressed in UTC.
func StartOf(t time.Time, pt Type, loc *time.Location, anchor time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	day := startOfLocalDay(t.In(loc))
	anchorDay := startOfLocalDay(anchor.In(loc))

	if pt == Monthly {
		return monthlyStartOf(day, anchorDay, loc).UTC()
	}

	step := pt.lengthDays()
	if step == 0 {
		// Unknown cadence degrades to the day itself rather than failing.
		log.Warnf("period: unknown type %q, using day boundary", pt)
		return day.UTC()
	}
	diff := civilDay(day) - civilDay(anchorDay)
	offset := ((diff % step) + step) % step
	return startOfLocalDay(day.AddDate(0, 0, -offset)).UTC()
}

// NextStart returns the start instant of the period immediately following the
// period beginning at start. Weekly and biweekly periods advance by whole local
// days so boundaries stay on local midnight across DST transitions. Monthly
// periods advance exactly one calendar month; a start on the last day of its
// month is treated as month-end anchored and lands on the last day of the next
// month, so a January 31 anchor yields February 28 and then March 31 rather
// than drifting to the 28th forever.
func NextStart(start time.Time, pt Type, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := startOfLocalDay(start.In(loc))

	if pt == Monthly {
		return nextMonthly(local, loc).UTC()
	}

	step := pt.lengthDays()
	if step == 0 {
		log.Warnf("period: unknown type %q, advancing one day", pt)
		step = 1
	}
	return startOfLocalDay(local.AddDate(0, 0, step)).UTC()
}

// EnsureEnd returns the stored period end when present, otherwise reconstructs
// it from the start and cadence. Plans persisted before the end instant was
// stored rely on this. Never fails.
func EnsureEnd(start time.Time, stored *time.Time, pt Type, loc *time.Location) time.Time {
	if stored != nil && !stored.IsZero() {
		return *stored
	}
	return NextStart(start, pt, loc)
}

// ResolveLocation picks the first loadable IANA timezone out of the candidates,
// falling back to UTC. Empty and invalid names are skipped.
func ResolveLocation(candidates ...string) *time.Location {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Warnf("period: ignoring invalid timezone %q: %v", name, err)
			continue
		}
		return loc
	}
	return time.UTC
}

func monthlyStartOf(day, anchorDay time.Time, loc *time.Location) time.Time {
	anchorDOM := anchorDay.Day()
	candidate := monthlyBoundary(day.Year(), day.Month(), anchorDOM, loc)
	if candidate.After(day) {
		prevYear, prevMonth, _ := day.AddDate(0, 0, -day.Day()).Date()
		candidate = monthlyBoundary(prevYear, prevMonth, anchorDOM, loc)
	}
	return candidate
}

func nextMonthly(local time.Time, loc *time.Location) time.Time {
	year, month, dom := local.Date()
	if dom == daysInMonth(year, month) {
		// Month-end anchored: stay on the last day of each month.
		dom = 31
	}
	next := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	return monthlyBoundary(next.Year(), next.Month(), dom, loc)
}

// monthlyBoundary is the local midnight of the given day of month, clamped to
// the month's last day.
func monthlyBoundary(year int, month time.Month, dom int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); dom > last {
		dom = last
	}
	return time.Date(year, month, dom, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfLocalDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// civilDay numbers local calendar days consecutively so distances between two
// local midnights are exact whole days even across DST transitions.
func civilDay(t time.Time) int {
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
	return int(u / 86400)
}
