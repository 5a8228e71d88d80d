package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
)

func TestWeekRange(t *testing.T) {
	tests := []struct {
		date      string
		wantStart string
		wantEnd   string
	}{
		{"2024-01-01", "2024-01-01", "2024-01-07"}, // Monday
		{"2024-01-07", "2024-01-01", "2024-01-07"}, // Sunday
		{"2024-01-03", "2024-01-01", "2024-01-07"}, // Wednesday
		{"2024-01-08", "2024-01-08", "2024-01-14"}, // next Monday
		{"2024-03-01", "2024-02-26", "2024-03-03"}, // leap year month boundary
		{"2023-12-31", "2023-12-25", "2023-12-31"}, // Sunday at year end
	}

	for _, tt := range tests {
		got, err := WeekRange(tt.date)
		if err != nil {
			t.Fatalf("WeekRange(%q): %v", tt.date, err)
		}
		if got.Start != tt.wantStart || got.End != tt.wantEnd {
			t.Errorf("WeekRange(%q) = {%s, %s}, want {%s, %s}", tt.date, got.Start, got.End, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestWeekRangeInvalid(t *testing.T) {
	_, err := WeekRange("2024/01/01")
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestWeekDays(t *testing.T) {
	days, err := WeekDays("2024-01-07")
	if err != nil {
		t.Fatalf("WeekDays: %v", err)
	}
	want := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07"}
	if len(days) != len(want) {
		t.Fatalf("len = %d, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %q, want %q", i, days[i], want[i])
		}
	}
}

func TestWeekStartEveryWeekday(t *testing.T) {
	monday := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		if got := WeekStart(day); !got.Equal(monday) {
			t.Errorf("WeekStart(%s) = %s, want %s", day.Weekday(), FormatDate(got), FormatDate(monday))
		}
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2024-02-28", 2)
	if err != nil {
		t.Fatalf("AddDays: %v", err)
	}
	if got != "2024-03-01" {
		t.Errorf("AddDays = %q, want %q", got, "2024-03-01")
	}
}
