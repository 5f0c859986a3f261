// Package store provides a SQLite-backed cache of compiled proto networks
// and a log of compilations.
//
// Compiled networks are immutable and content addressed, so the cache is
// keyed by root identity and writes are idempotent:
//   - networks: one summary row per root (output name, digest, node count)
//   - network_nodes: the nodes of each network in topological order
//   - compilations / compilation_outputs: which roots a run produced, or
//     which error code each failed output hit
//
// # Ordering
//
// Rows are stamped with a logical seq, never a timestamp. Listings are
// ORDER BY seq ASC, id ASC COLLATE BINARY so repeated runs list identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
