package model

import (
	"errors"
	"strings"
	"testing"
)

func TestGenError(t *testing.T) {
	inner := errors.New("connection refused")
	err := GenError("notifier", inner, map[string]interface{}{"url": "http://esp32/blink"}, "trigger failed after %d ms", 1000)

	if err.Processor != "notifier" {
		t.Errorf("Processor = %q, want %q", err.Processor, "notifier")
	}
	if err.Message != "trigger failed after 1000 ms" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.StackTrace == "" {
		t.Error("expected a stack trace")
	}
	if !errors.Is(err, inner) {
		t.Error("expected CustomError to unwrap to the inner error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, want inner message included", err.Error())
	}
}

func TestCustomErrorWithoutInner(t *testing.T) {
	err := GenError("agent", nil, nil, "stream closed")
	if got, want := err.Error(), "agent: stream closed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
