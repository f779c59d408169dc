// Package telemetry provides OpenTelemetry instrumentation for posturefix.
//
// Telemetry is disabled by default; a one-shot CLI rarely has a collector
// nearby. When enabled, spans and metrics are exported over OTLP (gRPC or
// HTTP/protobuf) and flushed on Shutdown, which the CLI calls before exit.
//
// Failures never abort a repair. If a provider cannot be created the
// instance is marked degraded and hands out no-op tracers and meters.
//
// Use TestTelemetry in tests:
//
//	tt := telemetry.NewTestTelemetry()
//	engine := repair.NewEngine(reg, repair.WithTracer(tt.Tracer("test")))
//	...
//	tt.AssertSpanExists(t, "repair.execute")
package telemetry
