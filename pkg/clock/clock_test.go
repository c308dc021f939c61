package clock

import (
	"testing"
	"time"
)

func TestSystemIsUTC(t *testing.T) {
	if loc := NewSystem().Now().Location(); loc != time.UTC {
		t.Errorf("location = %v, want UTC", loc)
	}
}

func TestFixed(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	c := NewFixed(at)
	if !c.Now().Equal(at) || c.Now().Location() != time.UTC {
		t.Errorf("Now() = %v", c.Now())
	}
}

func TestManualAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	got := m.Advance(90 * time.Minute)
	if want := start.Add(90 * time.Minute); !got.Equal(want) || !m.Now().Equal(want) {
		t.Errorf("Advance = %v, want %v", got, want)
	}

	m.Set(start)
	if !m.Now().Equal(start) {
		t.Errorf("Set did not reset the clock")
	}
}
