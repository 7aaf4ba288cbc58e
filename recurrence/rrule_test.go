package recurrence

import (
	"testing"
	"time"
)

func TestParseFreqOnly(t *testing.T) {
	tests := []struct {
		input string
		freq  Freq
	}{
		{"FREQ=DAILY", Daily},
		{"FREQ=WEEKLY", Weekly},
		{"FREQ=MONTHLY", Monthly},
		{"FREQ=YEARLY", Yearly},
	}

	for _, tt := range tests {
		r, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.input, err)
			continue
		}
		if r.Freq != tt.freq {
			t.Errorf("Parse(%q).Freq = %d, want %d", tt.input, r.Freq, tt.freq)
		}
		if r.Interval != 1 {
			t.Errorf("Parse(%q).Interval = %d, want 1", tt.input, r.Interval)
		}
	}
}

func TestParseCompound(t *testing.T) {
	r, err := Parse("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR;COUNT=10")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if r.Freq != Weekly || r.Interval != 2 || r.Count != 10 {
		t.Errorf("got Freq=%d Interval=%d Count=%d", r.Freq, r.Interval, r.Count)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	if len(r.ByDay) != len(want) {
		t.Fatalf("ByDay len = %d, want %d", len(r.ByDay), len(want))
	}
	for i, d := range r.ByDay {
		if d != want[i] {
			t.Errorf("ByDay[%d] = %v, want %v", i, d, want[i])
		}
	}
}

func TestParseUntil(t *testing.T) {
	r, err := Parse("FREQ=WEEKLY;UNTIL=20260301T000000Z")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if r.Until == nil {
		t.Fatal("Until should not be nil")
	}
	if !r.Until.Equal(NewDate(2026, time.March, 1)) {
		t.Errorf("Until = %v, want 2026-03-01", r.Until)
	}

	// Date-only form is also accepted.
	r, err = Parse("FREQ=DAILY;UNTIL=20260115")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !r.Until.Equal(NewDate(2026, time.January, 15)) {
		t.Errorf("Until = %v, want 2026-01-15", r.Until)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"BYDAY=MO", // no FREQ
		"FREQ=HOURLY",
		"FREQ=WEEKLY;INTERVAL=0",
		"FREQ=WEEKLY;BYDAY=XX",
		"FREQ=MONTHLY;BYMONTHDAY=32",
		"FREQ=DAILY;COUNT=0",
		"FREQ=DAILY;UNTIL=someday",
		"FREQ=DAILY;UNKNOWN=1",
	}

	for _, input := range tests {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) should error", input)
		}
	}
}

func TestRuleStringRoundTrip(t *testing.T) {
	inputs := []string{
		"FREQ=DAILY",
		"FREQ=WEEKLY",
		"FREQ=WEEKLY;INTERVAL=2",
		"FREQ=WEEKLY;BYDAY=MO,WE,FR",
		"FREQ=MONTHLY;BYMONTHDAY=15",
		"FREQ=YEARLY",
		"FREQ=DAILY;COUNT=5",
	}

	for _, input := range inputs {
		r, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", input, err)
			continue
		}
		if got := r.String(); got != input {
			t.Errorf("roundtrip %q -> %q", input, got)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		rule string
		want string
	}{
		{"FREQ=DAILY", "Repeats daily"},
		{"FREQ=DAILY;INTERVAL=3", "Repeats every 3 days"},
		{"FREQ=WEEKLY", "Repeats weekly"},
		{"FREQ=WEEKLY;INTERVAL=2", "Repeats every 2 weeks"},
		{"FREQ=WEEKLY;BYDAY=MO,WE,FR", "Repeats weekly on Mon, Wed, Fri"},
		{"FREQ=MONTHLY", "Repeats monthly"},
		{"FREQ=YEARLY", "Repeats yearly"},
	}

	for _, tt := range tests {
		r, _ := Parse(tt.rule)
		if got := r.Describe(); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}
