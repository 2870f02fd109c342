// Package engine assembles a ready-to-run workflow runtime from an
// EngineConfig: logger initialization, optional OpenTelemetry wiring, a
// launcher wrapped with the configured observability layers, and a flow
// executor over the configured work root. It also owns the process
// lifecycle: signal-based cancellation, health aggregation, and graceful
// shutdown of the telemetry providers.
package engine
