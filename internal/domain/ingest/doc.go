// Package ingest routes inbound telemetry messages and triggers analysis.
//
// The Service classifies each message (console, error, state, chat, health),
// updates the session store, and conditionally calls the language-model
// provider:
//   - chat and error messages call the provider synchronously; failures
//     surface to the caller
//   - console messages at error level arm the auto-analysis trigger, which
//     runs on a background worker and never surfaces failures
//
// Events (error-detected, auto-analysis, health-check) are published to a
// Bus with zero-or-more subscribers; publish is non-blocking and a slow
// subscriber loses events rather than stalling ingestion.
package ingest
