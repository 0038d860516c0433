package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecode_KnownEvents(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"startLive","teacherId":"T1"}`))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	start, ok := ev.(StartLive)
	if !ok {
		t.Fatalf("Expected StartLive, got %T", ev)
	}
	if start.TeacherID != "T1" {
		t.Errorf("Expected teacherId T1, got %q", start.TeacherID)
	}

	ev, err = Decode([]byte(`{"type":"whiteboardUpdate","teacherId":"T1","whiteboardData":"[]"}`))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	update, ok := ev.(WhiteboardUpdate)
	if !ok {
		t.Fatalf("Expected WhiteboardUpdate, got %T", ev)
	}
	if update.WhiteboardData != "[]" {
		t.Errorf("Expected opaque payload preserved, got %q", update.WhiteboardData)
	}

	ev, err = Decode([]byte(`{"type":"checkTeacherStatus"}`))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := ev.(CheckTeacherStatus); !ok {
		t.Errorf("Expected CheckTeacherStatus, got %T", ev)
	}
}

func TestDecode_RejectsBadInput(t *testing.T) {
	if _, err := Decode([]byte(`{"teacherId":"T1"}`)); !errors.Is(err, ErrMissingEventType) {
		t.Errorf("Expected ErrMissingEventType, got %v", err)
	}
	if _, err := Decode([]byte(`{"type":"brushStroke"}`)); !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("Expected ErrUnknownEventType, got %v", err)
	}
	if _, err := Decode([]byte(`not json`)); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Expected ErrMalformedEvent, got %v", err)
	}
}

func TestEncode_InjectsTypeTag(t *testing.T) {
	data, err := Encode(TeacherOnline{TeacherID: "T1", Timestamp: 42})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded["type"] != "teacherOnline" {
		t.Errorf("Expected type tag teacherOnline, got %v", decoded["type"])
	}
	if decoded["teacherId"] != "T1" {
		t.Errorf("Expected teacherId T1, got %v", decoded["teacherId"])
	}
	if decoded["timestamp"] != float64(42) {
		t.Errorf("Expected timestamp 42, got %v", decoded["timestamp"])
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	original := SessionEnded{TeacherID: "T1", HasAudio: true}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ev != Event(original) {
		t.Errorf("Expected %+v back, got %+v", original, ev)
	}
}

func TestValidate_TeacherID(t *testing.T) {
	if err := (StartLive{TeacherID: "teacher_01"}).Validate(); err != nil {
		t.Errorf("Expected valid teacher ID, got %v", err)
	}
	if err := (StartLive{}).Validate(); !errors.Is(err, ErrInvalidTeacherID) {
		t.Errorf("Expected ErrInvalidTeacherID for empty ID, got %v", err)
	}
	if err := (StartLive{TeacherID: "bad id!"}).Validate(); !errors.Is(err, ErrInvalidTeacherID) {
		t.Errorf("Expected ErrInvalidTeacherID for bad characters, got %v", err)
	}
	if err := (StartLive{TeacherID: strings.Repeat("x", 51)}).Validate(); !errors.Is(err, ErrInvalidTeacherID) {
		t.Errorf("Expected ErrInvalidTeacherID for overlong ID, got %v", err)
	}
}

func TestValidate_PayloadLimits(t *testing.T) {
	ok := WhiteboardUpdate{TeacherID: "T1", WhiteboardData: "[]"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected small payload to validate, got %v", err)
	}

	huge := WhiteboardUpdate{TeacherID: "T1", WhiteboardData: strings.Repeat("x", MaxWhiteboardPayload+1)}
	if err := huge.Validate(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}

	hugeAudio := AudioData{TeacherID: "T1", AudioData: strings.Repeat("x", MaxAudioPayload+1)}
	if err := hugeAudio.Validate(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge for audio, got %v", err)
	}
}

func TestIsValidTeacherID(t *testing.T) {
	valid := []string{"T1", "teacher-01", "a_b-c", "X"}
	for _, id := range valid {
		if !IsValidTeacherID(id) {
			t.Errorf("Expected %q to be valid", id)
		}
	}

	invalid := []string{"", "has space", "emoji🎨", "dot.dot", strings.Repeat("a", 51)}
	for _, id := range invalid {
		if IsValidTeacherID(id) {
			t.Errorf("Expected %q to be invalid", id)
		}
	}
}
