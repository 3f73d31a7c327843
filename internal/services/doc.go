// Package services holds the dashboard's business logic between the HTTP
// handlers and the survey pipeline.
//
// DashboardService owns the dataset cache: it loads the merged survey
// dataset through the configured source, serves it from the cache for the
// TTL, and builds the filtered dashboard view (per-date buckets, cumulative
// series, answer distributions, duplicates and footer counts). It also
// accepts workbook uploads and explicit reloads, both of which invalidate
// the cache.
//
// ChatService answers questions about the data. It summarizes the dataset,
// forwards the question to an assistant.Asker and records the exchange in
// the caller's session. Any failure becomes a placeholder answer.
//
// HealthService reports liveness, readiness and version information.
//
// Services take their collaborators as constructor arguments and log with
// an injected *slog.Logger.
package services
