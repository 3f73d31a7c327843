// Package assistant answers free-text questions about the loaded survey
// data through a hosted language model.
//
// An Asker sends a fixed system instruction, the compact context summary
// and the question, and returns a short answer. Failures are reported as
// ErrTimeout, *StatusError or ErrNotConfigured so callers can show a
// placeholder instead of failing the request; Placeholder maps them.
//
// Conversations are kept per browser session in a SessionStore.
package assistant
