package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if cfg := ConfigFromEnv("booking-service"); cfg.Enabled {
		t.Fatal("tracing must stay off without an endpoint")
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("APP_ENV", "production")
	cfg := ConfigFromEnv("booking-service")
	if !cfg.Enabled || cfg.OTLPEndpoint != "jaeger:4317" || cfg.SampleRatio != 0.25 || !cfg.Insecure {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Environment != "production" || cfg.ServiceVersion == "" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	cfg = ConfigFromEnv("booking-service")
	if cfg.Enabled || cfg.SampleRatio != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "booking-service"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := CaptureTraceContext(ctx)
	if tc.Traceparent != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" || tc.Tracestate != "" {
		t.Fatalf("unexpected trace context %+v", tc)
	}

	restored := trace.SpanContextFromContext(tc.Restore(context.Background()))
	if restored.TraceID() != traceID || restored.SpanID() != spanID {
		t.Fatalf("restored span context mismatch: %v", restored)
	}

	base := context.Background()
	if !CaptureTraceContext(base).IsZero() {
		t.Fatal("a context without a span must capture nothing")
	}
	if (TraceContext{}).Restore(base) != base {
		t.Fatal("empty strings must leave the context untouched")
	}
}
