package timegrid

import "testing"

func TestApplySwingIdentityAtZero(t *testing.T) {
	for _, tick := range []int{0, 120, 240, 360, 480} {
		if got := ApplySwing(tick, 480, 0); got != tick {
			t.Errorf("ApplySwing(%d, 480, 0) = %d, want %d", tick, got, tick)
		}
	}
}

func TestApplySwingOddSteps(t *testing.T) {
	// PPQ=480, swing=50%: scenario 1 from the spec.
	ppq, swing := 480, 50
	in := []int{0, 120, 240, 360}
	want := []int{0, 180, 240, 420}

	for i, tick := range in {
		got := ApplySwing(tick, ppq, swing)
		if got != want[i] {
			t.Errorf("ApplySwing(%d) = %d, want %d", tick, got, want[i])
		}
	}
}

func TestParseTimecodeBareInteger(t *testing.T) {
	got, err := ParseTimecode(480, "1920")
	if err != nil || got != 1920 {
		t.Fatalf("ParseTimecode(1920) = %d, %v", got, err)
	}
}

func TestParseTimecodeBarBeat(t *testing.T) {
	// bar=1, beat=2 at ppq=480: ticksPerBar=1920, so 1*1920 + 2*480 = 2880.
	got, err := ParseTimecode(480, "1:2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 2880; got != want {
		t.Fatalf("ParseTimecode(1:2) = %d, want %d", got, want)
	}
}

func TestParseTimecodeBarBeatSubtick(t *testing.T) {
	got, err := ParseTimecode(480, "0:0:30")
	if err != nil || got != 30 {
		t.Fatalf("ParseTimecode(0:0:30) = %d, %v", got, err)
	}
}

func TestParseTimecodeRejectsNegativeAndMalformed(t *testing.T) {
	cases := []string{"-1", "1:-2", "abc", "1:2:3:4", ""}
	for _, c := range cases {
		if _, err := ParseTimecode(480, c); err == nil {
			t.Errorf("ParseTimecode(%q) expected error, got nil", c)
		}
	}
}

func TestTicksPerBar(t *testing.T) {
	if got := TicksPerBar(480); got != 1920 {
		t.Errorf("TicksPerBar(480) = %d, want 1920", got)
	}
}
