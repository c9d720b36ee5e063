package generator

import "testing"

func TestParsePromptExtractsStyleBPMAndKey(t *testing.T) {
	b := ParsePrompt("dark deep house track, bpm=126, key: A minor, 32 bars", "")
	if b.Style != StyleHouse {
		t.Errorf("Style = %q, want house", b.Style)
	}
	if b.BPM != 126 {
		t.Errorf("BPM = %d, want 126", b.BPM)
	}
	if b.Key != "A minor" {
		t.Errorf("Key = %q, want \"A minor\"", b.Key)
	}
	if b.Mood != "dark" {
		t.Errorf("Mood = %q, want dark", b.Mood)
	}
	if b.LengthBars != 32 {
		t.Errorf("LengthBars = %d, want 32", b.LengthBars)
	}
}

func TestParsePromptDefaultsWhenUnrecognized(t *testing.T) {
	b := ParsePrompt("just some vibes", "")
	if b.Style != StyleUnknown {
		t.Errorf("Style = %q, want unknown", b.Style)
	}
	if b.LengthBars != 24 {
		t.Errorf("LengthBars = %d, want default 24", b.LengthBars)
	}
	if len(b.Roles) == 0 {
		t.Error("expected default roles to be populated")
	}
}

func TestParsePromptTitleFallsBackToFirstLine(t *testing.T) {
	b := ParsePrompt("trap banger\nsecond line ignored for title", "")
	if b.Title != "trap banger" {
		t.Errorf("Title = %q, want first line only", b.Title)
	}
}
