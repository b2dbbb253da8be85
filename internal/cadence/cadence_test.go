package cadence

import (
	"testing"
	"time"
)

func TestTriggerDue(t *testing.T) {
	base := time.UnixMilli(1_000_000)
	tr := Trigger{Name: "position", Period: 500 * time.Millisecond}

	cases := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"never fired", time.Time{}, base, true},
		{"too soon", base, base.Add(499 * time.Millisecond), false},
		{"exactly one period", base, base.Add(500 * time.Millisecond), true},
		{"overdue", base, base.Add(2 * time.Second), true},
		{"clock behind", base, base.Add(-time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.Due(tc.last, tc.now); got != tc.want {
				t.Fatalf("Due(%v, %v) = %v, want %v", tc.last, tc.now, got, tc.want)
			}
		})
	}
}

func TestDefaultSchedulePeriods(t *testing.T) {
	s := DefaultSchedule()
	if s.Identity.Period != 2*time.Second {
		t.Fatalf("identity period = %v, want 2s", s.Identity.Period)
	}
	if s.Position.Period != 500*time.Millisecond {
		t.Fatalf("position period = %v, want 500ms", s.Position.Period)
	}
	if s.OrderPoll.Period != 15*time.Second {
		t.Fatalf("order poll period = %v, want 15s", s.OrderPoll.Period)
	}
}

func TestApplyDefaultsKeepsCustomPeriods(t *testing.T) {
	s := Schedule{Position: Trigger{Period: time.Second}}.ApplyDefaults()
	if s.Position.Period != time.Second {
		t.Fatalf("custom position period overwritten: %v", s.Position.Period)
	}
	if s.Identity.Period != IdentityPeriod || s.OrderPoll.Period != OrderPollPeriod {
		t.Fatalf("zero periods not defaulted: %+v", s)
	}
	if s.Position.Name != "position" {
		t.Fatalf("name not defaulted: %q", s.Position.Name)
	}
}
