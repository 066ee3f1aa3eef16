package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLoggerAppliesLevel(t *testing.T) {
	logger, err := NewLogger("warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn should be enabled at warn level")
	}
}

func TestWithOperationAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	WithOperation(zap.New(core), "usecase.predict", "req-1").Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "usecase.predict" {
		t.Fatalf("unexpected operation field: %v", fields["operation"])
	}
	if fields["request_id"] != "req-1" {
		t.Fatalf("unexpected request_id field: %v", fields["request_id"])
	}
}

func TestWithOperationOmitsEmptyRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	WithOperation(zap.New(core), "startup", "").Info("hello")

	if _, ok := logs.All()[0].ContextMap()["request_id"]; ok {
		t.Fatal("request_id should be omitted when empty")
	}
}

func TestOperationErrorUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := NewOperationError("features.extract", "req-9", base)

	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to match wrapped error")
	}
	if got := err.Error(); got != "features.extract (request_id=req-9): boom" {
		t.Fatalf("unexpected message: %s", got)
	}
	if NewOperationError("noop", "", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
}

func TestCauseStripsOperationLayers(t *testing.T) {
	base := errors.New("no face detected")
	err := NewOperationError("usecase.predict", "req", NewOperationError("features.extract", "req", base))

	if got := Cause(err); got != base {
		t.Fatalf("expected base error, got %v", got)
	}
	if got := Cause(base); got != base {
		t.Fatalf("plain error should be returned unchanged, got %v", got)
	}
}
