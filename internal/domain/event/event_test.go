package event

import (
	"testing"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"started", TypeSubmissionStarted, true},
		{"step completed", TypeStepCompleted, true},
		{"step failed", TypeStepFailed, true},
		{"completed", TypeSubmissionCompleted, true},
		{"failed", TypeSubmissionFailed, true},
		{"unknown", Type("instance.created"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsFinal(t *testing.T) {
	if !TypeSubmissionFailed.IsFinal() || !TypeSubmissionCompleted.IsFinal() {
		t.Error("submission.completed and submission.failed should be final")
	}
	if TypeStepFailed.IsFinal() {
		t.Error("step.failed should not be final")
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeStepCompleted, "attempt-1", "student1", map[string]interface{}{
		"step": "select_student",
	})

	if evt.ID == "" {
		t.Error("NewEvent() should generate an ID")
	}
	if evt.Timestamp.IsZero() {
		t.Error("NewEvent() should set a timestamp")
	}
	if got := evt.GetPayloadString("step"); got != "select_student" {
		t.Errorf("GetPayloadString(step) = %q, want select_student", got)
	}

	other := NewEvent(TypeStepCompleted, "attempt-1", "student1", nil)
	if other.ID == evt.ID {
		t.Error("event IDs should be unique")
	}
	if other.Payload == nil {
		t.Error("nil payload should be replaced with an empty map")
	}
}

func TestEvent_WithPayloadIsImmutable(t *testing.T) {
	original := NewEvent(TypeSubmissionCompleted, "a", "s", map[string]interface{}{"success": true})
	updated := original.WithPayload("message", "done")

	if _, ok := original.Payload["message"]; ok {
		t.Error("WithPayload() mutated the original event")
	}
	if updated.GetPayloadString("message") != "done" {
		t.Error("WithPayload() did not set the key")
	}
	if !updated.GetPayloadBool("success") {
		t.Error("WithPayload() dropped existing keys")
	}
	if updated.ID != original.ID {
		t.Error("WithPayload() should keep the event ID")
	}
}
