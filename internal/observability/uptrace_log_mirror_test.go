package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog("http request", []any{"method", "GET", "path", "/healthz"}) {
		t.Fatalf("expected health probe request log to be skipped")
	}
	if shouldSkipUptraceLog("http request", []any{"method", "GET", "path", "/v1/push/public-key"}) {
		t.Fatalf("did not expect regular request log to be skipped")
	}
	if shouldSkipUptraceLog("subscribe failed", []any{"path", "/healthz"}) {
		t.Fatalf("only request logs should be filtered by path")
	}
}

func TestToOTelSeverity(t *testing.T) {
	cases := []struct {
		level zapcore.Level
		want  otellog.Severity
	}{
		{zapcore.DebugLevel, otellog.SeverityDebug},
		{zapcore.InfoLevel, otellog.SeverityInfo},
		{zapcore.WarnLevel, otellog.SeverityWarn},
		{zapcore.ErrorLevel, otellog.SeverityError},
		{zapcore.PanicLevel, otellog.SeverityFatal},
	}
	for _, tc := range cases {
		if got := toOTelSeverity(tc.level); got != tc.want {
			t.Fatalf("level %s: expected severity %v, got %v", tc.level, tc.want, got)
		}
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{
		"endpoint", "https://push.example.net/send/a",
		"count", 3,
		"error", errors.New("boom"),
		"elapsed", 250 * time.Millisecond,
		42, "non-string key",
		"dangling",
	})

	if len(attrs) != 6 {
		t.Fatalf("expected 6 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "endpoint" || attrs[0].Value.AsString() != "https://push.example.net/send/a" {
		t.Fatalf("unexpected first attribute: %+v", attrs[0])
	}
	if attrs[1].Value.AsInt64() != 3 {
		t.Fatalf("expected int attribute, got %+v", attrs[1])
	}
	if attrs[2].Value.AsString() != "boom" {
		t.Fatalf("expected error rendered as string, got %+v", attrs[2])
	}
	if attrs[4].Key != "arg_4" {
		t.Fatalf("expected synthetic key for non-string key, got %q", attrs[4].Key)
	}
	if attrs[5].Key != "dangling" {
		t.Fatalf("expected dangling key kept, got %q", attrs[5].Key)
	}
}
