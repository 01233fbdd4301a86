package domain

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{
			name:  "plain month step",
			start: date(2024, time.January, 15),
			n:     1,
			want:  date(2024, time.February, 15),
		},
		{
			name:  "clamps into leap february",
			start: date(2024, time.January, 31),
			n:     1,
			want:  date(2024, time.February, 29),
		},
		{
			name:  "clamps into non-leap february",
			start: date(2023, time.January, 31),
			n:     1,
			want:  date(2023, time.February, 28),
		},
		{
			name:  "clamps 31st into 30-day month",
			start: date(2024, time.March, 31),
			n:     1,
			want:  date(2024, time.April, 30),
		},
		{
			name:  "year rollover",
			start: date(2024, time.November, 15),
			n:     3,
			want:  date(2025, time.February, 15),
		},
		{
			name:  "leap day plus a year clamps",
			start: date(2024, time.February, 29),
			n:     12,
			want:  date(2025, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonths(tt.start, tt.n); !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.start, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddMonths_PreservesClock(t *testing.T) {
	start := time.Date(2024, time.January, 31, 10, 30, 45, 0, time.UTC)
	got := AddMonths(start, 1)
	want := time.Date(2024, time.February, 29, 10, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddMonths() = %v, want %v", got, want)
	}
}

func TestNextPeriodStart(t *testing.T) {
	start := date(2024, time.January, 1)

	if got := NextPeriodStart(start, FrequencyMonthly); !got.Equal(date(2024, time.February, 1)) {
		t.Errorf("monthly step = %v", got)
	}
	if got := NextPeriodStart(start, FrequencyQuarterly); !got.Equal(date(2024, time.April, 1)) {
		t.Errorf("quarterly step = %v", got)
	}
	if got := NextPeriodStart(start, FrequencyYearly); !got.Equal(date(2025, time.January, 1)) {
		t.Errorf("yearly step = %v", got)
	}
}

func TestPeriodCount(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		frequency Frequency
		want      int
	}{
		{
			name:      "exact year monthly",
			start:     date(2024, time.January, 1),
			end:       date(2025, time.January, 1),
			frequency: FrequencyMonthly,
			want:      12,
		},
		{
			name:      "exact year quarterly",
			start:     date(2024, time.January, 1),
			end:       date(2025, time.January, 1),
			frequency: FrequencyQuarterly,
			want:      4,
		},
		{
			name:      "exact year yearly",
			start:     date(2024, time.January, 1),
			end:       date(2025, time.January, 1),
			frequency: FrequencyYearly,
			want:      1,
		},
		{
			name:      "calendar year ending dec 31 monthly",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.December, 31),
			frequency: FrequencyMonthly,
			want:      12,
		},
		{
			name:      "calendar year ending dec 31 quarterly",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.December, 31),
			frequency: FrequencyQuarterly,
			want:      4,
		},
		{
			name:      "partial trailing month counts",
			start:     date(2024, time.January, 15),
			end:       date(2024, time.March, 14),
			frequency: FrequencyMonthly,
			want:      2,
		},
		{
			name:      "shorter than one period clamps to one",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.January, 15),
			frequency: FrequencyMonthly,
			want:      1,
		},
		{
			name:      "short span quarterly clamps to one",
			start:     date(2024, time.January, 1),
			end:       date(2024, time.January, 15),
			frequency: FrequencyQuarterly,
			want:      1,
		},
		{
			name:      "eighteen months quarterly",
			start:     date(2024, time.January, 1),
			end:       date(2025, time.July, 1),
			frequency: FrequencyQuarterly,
			want:      6,
		},
		{
			name:      "eighteen months yearly rounds up",
			start:     date(2024, time.January, 1),
			end:       date(2025, time.July, 1),
			frequency: FrequencyYearly,
			want:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodCount(tt.start, tt.end, tt.frequency)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PeriodCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPeriodCount_Errors(t *testing.T) {
	start := date(2024, time.June, 1)

	if _, err := PeriodCount(start, start, FrequencyMonthly); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("equal dates: expected ErrInvalidPeriod, got %v", err)
	}

	if _, err := PeriodCount(start, date(2024, time.May, 1), FrequencyMonthly); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("end before start: expected ErrInvalidPeriod, got %v", err)
	}

	if _, err := PeriodCount(start, date(2025, time.June, 1), Frequency("weekly")); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("unknown frequency: expected ErrInvalidFrequency, got %v", err)
	}
}
