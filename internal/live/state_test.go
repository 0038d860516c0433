package live

import (
	"testing"
)

func TestState_StartFromIdle(t *testing.T) {
	s := NewState()

	started, err := s.Start("T1")
	if err != nil {
		t.Fatalf("Expected no error starting from idle, got %v", err)
	}
	if !started {
		t.Error("Expected started=true for first start")
	}

	current, ok := s.Current()
	if !ok || current != "T1" {
		t.Errorf("Expected slot to hold T1, got %q (ok=%v)", current, ok)
	}
}

func TestState_SingleOccupancy(t *testing.T) {
	s := NewState()

	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to start T1: %v", err)
	}

	started, err := s.Start("T2")
	if err != ErrSlotOccupied {
		t.Errorf("Expected ErrSlotOccupied for second teacher, got %v", err)
	}
	if started {
		t.Error("Expected started=false for rejected start")
	}

	// Rejection must leave state unchanged.
	if current, _ := s.Current(); current != "T1" {
		t.Errorf("Expected slot to still hold T1, got %q", current)
	}
}

func TestState_IdempotentRestart(t *testing.T) {
	s := NewState()

	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to start T1: %v", err)
	}
	if !s.SetAudio("T1", true) {
		t.Fatal("Expected SetAudio to succeed while live")
	}

	started, err := s.Start("T1")
	if err != nil {
		t.Errorf("Expected no error for same-teacher restart, got %v", err)
	}
	if started {
		t.Error("Expected started=false for idempotent restart")
	}
	if !s.Audio("T1") {
		t.Error("Expected audio flag to survive idempotent restart")
	}
}

func TestState_StopReleasesSlot(t *testing.T) {
	s := NewState()

	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to start T1: %v", err)
	}
	s.SetAudio("T1", true)

	if !s.Stop("T1") {
		t.Error("Expected Stop to report release for occupant")
	}
	if _, ok := s.Current(); ok {
		t.Error("Expected slot to be empty after stop")
	}
	if s.Audio("T1") {
		t.Error("Expected audio flag cleared with the slot")
	}

	// A new occupancy starts with the flag unset.
	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to restart T1: %v", err)
	}
	if s.Audio("T1") {
		t.Error("Expected fresh occupancy to start with audio unset")
	}
}

func TestState_StaleStopIsNoOp(t *testing.T) {
	s := NewState()

	if s.Stop("T1") {
		t.Error("Expected stop on idle slot to be a no-op")
	}

	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to start T1: %v", err)
	}
	if s.Stop("T2") {
		t.Error("Expected stop by non-occupant to be a no-op")
	}
	if current, _ := s.Current(); current != "T1" {
		t.Errorf("Expected slot to still hold T1, got %q", current)
	}
}

func TestState_Holds(t *testing.T) {
	s := NewState()

	if s.Holds("T1") {
		t.Error("Expected Holds to be false while idle")
	}
	if s.Holds("") {
		t.Error("Expected Holds to be false for empty teacher ID")
	}

	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to start T1: %v", err)
	}
	if !s.Holds("T1") {
		t.Error("Expected Holds(T1) while T1 is live")
	}
	if s.Holds("T2") {
		t.Error("Expected Holds(T2) to be false while T1 is live")
	}
}

func TestState_AudioRequiresOccupancy(t *testing.T) {
	s := NewState()

	if s.SetAudio("T1", true) {
		t.Error("Expected SetAudio to fail while idle")
	}

	if _, err := s.Start("T1"); err != nil {
		t.Fatalf("Failed to start T1: %v", err)
	}
	if s.SetAudio("T2", true) {
		t.Error("Expected SetAudio for non-occupant to fail")
	}
	if s.Audio("T2") {
		t.Error("Expected Audio for non-occupant to be false")
	}
}

func TestState_NextTimestampMonotonic(t *testing.T) {
	s := NewState()

	var last int64
	for i := 0; i < 1000; i++ {
		ts := s.NextTimestamp()
		if ts <= last {
			t.Fatalf("Expected strictly increasing timestamps, got %d after %d", ts, last)
		}
		last = ts
	}
}

func TestState_StartStopSequences(t *testing.T) {
	// At most one teacher occupies the slot across arbitrary sequences.
	s := NewState()
	teachers := []string{"T1", "T2", "T3"}

	for i := 0; i < 100; i++ {
		teacher := teachers[i%len(teachers)]
		_, err := s.Start(teacher)

		current, occupied := s.Current()
		if !occupied {
			t.Fatal("Expected slot occupied after some start succeeded")
		}
		if err == ErrSlotOccupied && current == teacher {
			t.Fatalf("Rejected teacher %s appears to hold the slot", teacher)
		}

		if i%3 == 0 {
			s.Stop(current)
			if _, ok := s.Current(); ok {
				t.Fatal("Expected slot empty after occupant stop")
			}
		}
	}
}
