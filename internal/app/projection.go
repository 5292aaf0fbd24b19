/**
 * @description
 * Pure schedule projection: given a start date, optional end date, frequency,
 * and optional day-of-week, compute the ordered list of execution timestamps.
 * The projection is computed once at confirmation and stored on the schedule;
 * the execution engine only ever walks that stored list.
 *
 * @notes
 * - Day-of-week uses Monday=0..Sunday=6 internally. Cron descriptors use the
 *   conventional Sunday=0 numbering, so DescribeSchedule shifts by one.
 * - MONTHLY advancement clamps to the last day of the next month and then
 *   drifts: each step starts from the previous clamped occurrence, so a
 *   schedule started on Jan 31 runs Feb 28 and then Mar 28.
 */

package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ProjectSchedule computes every execution timestamp for the given schedule
// parameters. Output is ordered, never longer than maxOccurrences, and never
// extends past end. ONCE yields at most a single entry.
func ProjectSchedule(start time.Time, end *time.Time, frequency domain.Frequency, dayOfWeek *int, maxOccurrences int) []time.Time {
	if !frequency.Valid() {
		return nil
	}
	current := firstRun(start, frequency, dayOfWeek)

	if frequency == domain.FrequencyOnce {
		if withinRange(current, end) {
			return []time.Time{current}
		}
		return nil
	}

	var dates []time.Time
	for len(dates) < maxOccurrences {
		if !withinRange(current, end) {
			break
		}
		dates = append(dates, current)
		current = nextRun(current, frequency)
	}
	return dates
}

// firstRun advances the start date to the requested weekday when one applies.
// An exact match counts, so the advance is always 0-6 days.
func firstRun(start time.Time, frequency domain.Frequency, dayOfWeek *int) time.Time {
	if dayOfWeek == nil {
		return start
	}
	if frequency != domain.FrequencyOnce && frequency != domain.FrequencyWeekly {
		return start
	}
	daysAhead := *dayOfWeek - mondayIndexed(start.Weekday())
	if daysAhead < 0 {
		daysAhead += 7
	}
	return start.AddDate(0, 0, daysAhead)
}

func nextRun(current time.Time, frequency domain.Frequency) time.Time {
	switch frequency {
	case domain.FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		year := current.Year() + int(current.Month())/12
		month := time.Month(int(current.Month())%12 + 1)
		day := current.Day()
		if last := daysInMonth(year, month); day > last {
			day = last
		}
		return time.Date(year, month, day, current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
	}
	return current
}

func withinRange(date time.Time, end *time.Time) bool {
	if end == nil {
		return true
	}
	return !date.After(*end)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// mondayIndexed converts Go's Sunday=0 weekday to the Monday=0 convention.
func mondayIndexed(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}

// ParseDayOfWeek converts a day-of-week value in numeric ("0".."6") or name
// ("Monday", case-insensitive) form to the Monday=0 index. The boolean
// reports whether the value was recognized.
func ParseDayOfWeek(value string) (*int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, false
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 0 || n > 6 {
			return nil, false
		}
		return &n, true
	}
	for i, name := range dayNames {
		if strings.EqualFold(trimmed, name) {
			day := i
			return &day, true
		}
	}
	return nil, false
}

// DayOfWeekName returns the display name for a Monday=0 index, or "" when the
// index is out of range.
func DayOfWeekName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek >= len(dayNames) {
		return ""
	}
	return dayNames[dayOfWeek]
}

// DescribeSchedule renders the schedule's recurrence as a cron expression for
// display and diagnostics. ONCE has no recurrence and yields "".
func DescribeSchedule(frequency domain.Frequency, dayOfWeek *int) string {
	switch frequency {
	case domain.FrequencyDaily:
		return "0 0 * * *"
	case domain.FrequencyWeekly:
		cronDow := 1
		if dayOfWeek != nil {
			cronDow = (*dayOfWeek + 1) % 7
		}
		return fmt.Sprintf("0 0 * * %d", cronDow)
	case domain.FrequencyMonthly:
		return "0 0 1 * *"
	}
	return ""
}
