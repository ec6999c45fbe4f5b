// Package instrumentation provides OpenTelemetry metrics and tracing for
// the authorization server. When disabled it installs no-op providers, so
// instrumented code paths carry no overhead and never need nil checks on
// meters or tracers.
package instrumentation
