package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestResultFinishOnce(t *testing.T) {
	r := NewResult()
	if r.Status != StatusInit || r.Done() {
		t.Fatalf("expected INIT, got %s", r.Status)
	}
	if err := r.Finish(StatusOK, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := r.Finish(StatusTimeout, ""); !errors.Is(err, ErrStatusAlreadySet) {
		t.Fatalf("expected ErrStatusAlreadySet, got %v", err)
	}
	if r.Status != StatusOK {
		t.Fatalf("status changed to %s", r.Status)
	}
}

func TestResultFinishRejectsInit(t *testing.T) {
	r := NewResult()
	if err := r.Finish(StatusInit, ""); !errors.Is(err, ErrNonTerminalStatus) {
		t.Fatalf("expected ErrNonTerminalStatus, got %v", err)
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusInit, StatusOK, StatusTimeout, StatusMQTTError} {
		got, err := ParseStatus(s.String())
		if err != nil || got != s {
			t.Fatalf("parse %s: %v %v", s, got, err)
		}
	}
	if _, err := ParseStatus("nope"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	b, err := json.Marshal(Result{Status: StatusMQTTError})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Result
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != StatusMQTTError {
		t.Fatalf("expected MQTT_ERROR, got %s", out.Status)
	}
}
