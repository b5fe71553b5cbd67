// Package infra holds the technical adapters of dockid: the broker fetcher,
// interface lookup, file sink, history stores, metric sinks and Sentry.
// These packages depend on the types defined in core, never the reverse.
package infra
