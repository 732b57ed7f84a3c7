package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestGetEnvStr(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("INSIGHTS_TEST_STR", "value")

	if got := GetEnvStr("INSIGHTS_TEST_STR", "fallback"); got != "value" {
		t.Errorf("expected %q, got %q", "value", got)
	}

	if got := GetEnvStr("INSIGHTS_TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name         string
		value        string
		defaultValue int
		want         int
	}{
		{"parses valid integer", "42", 0, 42},
		{"falls back on invalid integer", "not-a-number", 7, 7},
		{"falls back on empty", "", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("INSIGHTS_TEST_INT", tt.value)
			}

			if got := GetEnvInt("INSIGHTS_TEST_INT", tt.defaultValue); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestGetEnvInt64(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("INSIGHTS_TEST_INT64", "1048576")

	if got := GetEnvInt64("INSIGHTS_TEST_INT64", 0); got != 1048576 {
		t.Errorf("expected 1048576, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true literal", "true", false, true},
		{"numeric one", "1", false, true},
		{"yes with case", "YES", false, true},
		{"false literal", "false", true, false},
		{"numeric zero", "0", true, false},
		{"unparseable keeps default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("INSIGHTS_TEST_BOOL", tt.value)

			if got := GetEnvBool("INSIGHTS_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("INSIGHTS_TEST_DURATION", "45s")

	if got := GetEnvDuration("INSIGHTS_TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Errorf("expected 45s, got %v", got)
	}

	t.Setenv("INSIGHTS_TEST_DURATION", "bogus")

	if got := GetEnvDuration("INSIGHTS_TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("expected fallback 1m, got %v", got)
	}
}

func TestGetEnvLogLevel(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("INSIGHTS_TEST_LOG_LEVEL", tt.value)

			if got := GetEnvLogLevel("INSIGHTS_TEST_LOG_LEVEL", slog.LevelInfo); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty input", "", []string{}},
		{"single value", "GET", []string{"GET"}},
		{"trims whitespace", " GET , POST ", []string{"GET", "POST"}},
		{"drops empty segments", "GET,,POST,", []string{"GET", "POST"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommaSeparatedList(tt.input)

			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}

			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
