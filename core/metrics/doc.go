// Package metrics defines the recorders that observe finished identity runs.
// Sinks like PromSink and InfluxSink live in infra/metrics and register
// themselves with the factory so they can be selected from configuration.
// Several configured sinks are combined into a MultiRecorder automatically.
package metrics
