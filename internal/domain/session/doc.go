// Package session owns per-client telemetry state.
//
// Each session holds ring-buffered console logs (oldest evicted first),
// ring-buffered state snapshots, and an unbounded conversation history,
// keyed by an opaque client-supplied identifier.
//
// Lifecycle:
//  1. Created lazily on first message referencing an unknown id
//  2. LastActivity touched on every message addressed to the session
//  3. Removed by the periodic Sweep once idle past the configured timeout
//
// A new message with a removed id creates a brand-new session with a reset
// StartTime; there is no transition back from expired.
//
// The map is sharded by fnv-1a of the session id so independent sessions
// never contend for a lock; same-id mutations serialize on the shard.
package session
