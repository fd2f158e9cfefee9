package issuance

import (
	"testing"
	"time"
)

func TestScheduleBoundaries(t *testing.T) {
	const start = int64(1_000_000)
	sched := NewSaleSchedule(start)
	opens := sched.GeneralOpens()
	if opens != start+618*60 {
		t.Fatalf("general phase opens at %d, want %d", opens, start+618*60)
	}

	cases := []struct {
		name string
		now  int64
		want Phase
	}{
		{"before start", start - 1, PhasePending},
		{"at start", start, PhaseInitial},
		{"mid initial", start + 300*60, PhaseInitial},
		{"last initial second", opens - 1, PhaseInitial},
		{"general opens", opens, PhaseGeneral},
		{"well after", opens + 86_400, PhaseGeneral},
	}
	for _, tc := range cases {
		if got := sched.Phase(tc.now); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestScheduleCustomDuration(t *testing.T) {
	sched := SaleSchedule{Start: 0, Duration: time.Hour}
	if sched.GeneralOpens() != 3600 {
		t.Fatalf("unexpected general open: %d", sched.GeneralOpens())
	}
	if sched.Phase(3599) != PhaseInitial {
		t.Fatal("expected initial phase one second before open")
	}
	if sched.Phase(3600) != PhaseGeneral {
		t.Fatal("expected general phase at open")
	}
}

func TestPhaseString(t *testing.T) {
	if PhasePending.String() != "pending" || PhaseInitial.String() != "initial" || PhaseGeneral.String() != "general" {
		t.Fatal("unexpected phase labels")
	}
	if Phase(99).String() != "unknown" {
		t.Fatal("expected unknown label for out-of-range phase")
	}
}
