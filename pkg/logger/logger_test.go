package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestGet_AutoInitializes(t *testing.T) {
	global = nil
	l := Get()
	if l == nil {
		t.Fatal("logger is nil after Get")
	}
	l.Info(context.Background(), "test message", String("k", "v"))
}

func TestNamed(t *testing.T) {
	Init()
	l := Named("batch")
	if l == nil {
		t.Fatal("named logger is nil")
	}
	l.Info(context.Background(), "test message", Int("n", 3), Float64("x", 1.5))
}

func TestSetLevelString(t *testing.T) {
	Init()
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Fatalf("SetLevelString(%q): %v", in, err)
		}
		if got := levelVar.Level(); got != want {
			t.Errorf("SetLevelString(%q) set %v, want %v", in, got, want)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("unknown level should error")
	}
}
