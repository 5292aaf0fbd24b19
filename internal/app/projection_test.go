package app

import (
	"testing"
	"time"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestProjectSchedule_OnceYieldsSingleDate(t *testing.T) {
	start := date(2025, time.March, 10)

	dates := ProjectSchedule(start, nil, domain.FrequencyOnce, nil, 24)

	if len(dates) != 1 {
		t.Fatalf("expected exactly one date, got %d", len(dates))
	}
	if !dates[0].Equal(start) {
		t.Fatalf("expected %v, got %v", start, dates[0])
	}
}

func TestProjectSchedule_OnceAdjustsToRequestedWeekday(t *testing.T) {
	// 2025-03-10 is a Monday; Friday is index 4.
	start := date(2025, time.March, 10)
	friday := 4

	dates := ProjectSchedule(start, nil, domain.FrequencyOnce, &friday, 24)

	if len(dates) != 1 {
		t.Fatalf("expected exactly one date, got %d", len(dates))
	}
	if want := date(2025, time.March, 14); !dates[0].Equal(want) {
		t.Fatalf("expected %v, got %v", want, dates[0])
	}
}

func TestProjectSchedule_OnceAfterEndYieldsNothing(t *testing.T) {
	start := date(2025, time.March, 10)
	end := date(2025, time.March, 9)

	dates := ProjectSchedule(start, &end, domain.FrequencyOnce, nil, 24)

	if len(dates) != 0 {
		t.Fatalf("expected no dates, got %d", len(dates))
	}
}

func TestProjectSchedule_DailyRespectsEndDate(t *testing.T) {
	start := date(2025, time.March, 10)
	end := date(2025, time.March, 14)

	dates := ProjectSchedule(start, &end, domain.FrequencyDaily, nil, 24)

	if len(dates) != 5 {
		t.Fatalf("expected 5 dates, got %d", len(dates))
	}
	for _, d := range dates {
		if d.After(end) {
			t.Fatalf("date %v exceeds end %v", d, end)
		}
	}
}

func TestProjectSchedule_DailyRespectsMaxOccurrences(t *testing.T) {
	start := date(2025, time.March, 10)

	dates := ProjectSchedule(start, nil, domain.FrequencyDaily, nil, 24)

	if len(dates) != 24 {
		t.Fatalf("expected the 24-occurrence cap, got %d", len(dates))
	}
}

func TestProjectSchedule_WeeklyAllOnRequestedWeekday(t *testing.T) {
	// 2025-03-10 is a Monday; Wednesday is index 2.
	start := date(2025, time.March, 10)
	wednesday := 2

	dates := ProjectSchedule(start, nil, domain.FrequencyWeekly, &wednesday, 8)

	if len(dates) != 8 {
		t.Fatalf("expected 8 dates, got %d", len(dates))
	}
	if want := date(2025, time.March, 12); !dates[0].Equal(want) {
		t.Fatalf("expected first run %v, got %v", want, dates[0])
	}
	for _, d := range dates {
		if d.Weekday() != time.Wednesday {
			t.Fatalf("expected every date on Wednesday, got %v on %v", d, d.Weekday())
		}
	}
}

func TestProjectSchedule_WeeklyExactWeekdayMatchCounts(t *testing.T) {
	// 2025-03-10 is itself a Monday.
	start := date(2025, time.March, 10)
	monday := 0

	dates := ProjectSchedule(start, nil, domain.FrequencyWeekly, &monday, 2)

	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}
	if !dates[0].Equal(start) {
		t.Fatalf("expected the start date itself as first run, got %v", dates[0])
	}
}

func TestProjectSchedule_MonthlyClampsAndDrifts(t *testing.T) {
	start := date(2025, time.January, 31)
	end := date(2025, time.April, 30)

	dates := ProjectSchedule(start, &end, domain.FrequencyMonthly, nil, 24)

	want := []time.Time{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 28),
		date(2025, time.April, 28),
	}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(dates), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %v, got %v", i, want[i], dates[i])
		}
	}
}

func TestProjectSchedule_MonthlyYearRollover(t *testing.T) {
	start := date(2025, time.November, 15)

	dates := ProjectSchedule(start, nil, domain.FrequencyMonthly, nil, 4)

	want := []time.Time{
		date(2025, time.November, 15),
		date(2025, time.December, 15),
		date(2026, time.January, 15),
		date(2026, time.February, 15),
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %v, got %v", i, want[i], dates[i])
		}
	}
}

func TestProjectSchedule_MonthlyLeapFebruary(t *testing.T) {
	start := date(2024, time.January, 31)

	dates := ProjectSchedule(start, nil, domain.FrequencyMonthly, nil, 2)

	if want := date(2024, time.February, 29); !dates[1].Equal(want) {
		t.Fatalf("expected leap-year clamp to %v, got %v", want, dates[1])
	}
}

func TestProjectSchedule_Deterministic(t *testing.T) {
	start := date(2025, time.January, 31)
	end := date(2026, time.January, 31)
	friday := 4

	first := ProjectSchedule(start, &end, domain.FrequencyWeekly, &friday, 24)
	second := ProjectSchedule(start, &end, domain.FrequencyWeekly, &friday, 24)

	if len(first) != len(second) {
		t.Fatalf("projection lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("occurrence %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestProjectSchedule_RejectsUnknownFrequency(t *testing.T) {
	dates := ProjectSchedule(date(2025, time.March, 10), nil, domain.Frequency("YEARLY"), nil, 24)

	if len(dates) != 0 {
		t.Fatalf("expected no dates for an unknown frequency, got %d", len(dates))
	}
}

func TestParseDayOfWeek(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"0", 0, true},
		{"6", 6, true},
		{"monday", 0, true},
		{"Sunday", 6, true},
		{" friday ", 4, true},
		{"7", 0, false},
		{"-1", 0, false},
		{"someday", 0, false},
		{"", 0, false},
	}

	for _, tc := range tests {
		got, ok := ParseDayOfWeek(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseDayOfWeek(%q): expected ok=%v, got %v", tc.input, tc.ok, ok)
		}
		if ok && *got != tc.want {
			t.Fatalf("ParseDayOfWeek(%q): expected %d, got %d", tc.input, tc.want, *got)
		}
	}
}

func TestDescribeSchedule(t *testing.T) {
	sunday := 6

	tests := []struct {
		frequency domain.Frequency
		dayOfWeek *int
		want      string
	}{
		{domain.FrequencyOnce, nil, ""},
		{domain.FrequencyDaily, nil, "0 0 * * *"},
		{domain.FrequencyWeekly, nil, "0 0 * * 1"},
		{domain.FrequencyWeekly, &sunday, "0 0 * * 0"},
		{domain.FrequencyMonthly, nil, "0 0 1 * *"},
	}

	for _, tc := range tests {
		if got := DescribeSchedule(tc.frequency, tc.dayOfWeek); got != tc.want {
			t.Fatalf("DescribeSchedule(%s): expected %q, got %q", tc.frequency, tc.want, got)
		}
	}
}
