// Package database provides the SQLite implementation of store.Store.
//
// The database holds three tables:
//   - tasks, with the staged and submitted deliverable pointers
//   - deliverables, holding the raw document bytes and their digest
//   - feedback_criteria, the supervisor-authored requirements of a task
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Transactions give the all-or-nothing semantics the lifecycle needs
//
// The pool is limited to a single connection, so transactions are
// serialized: a transaction never observes another one half-way through.
// The deliverable invariants (at most one staged and one submitted
// deliverable per task, never the same row twice) are also enforced by the
// schema, so a buggy caller fails loudly instead of corrupting state.
//
// Queries are built with github.com/Masterminds/squirrel.
package database
