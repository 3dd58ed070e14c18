// Package submission drives the staged and submitted deliverables of a task.
//
// A task is in one of four states, given by whether it holds a staged
// deliverable and whether it holds a submitted one. Upload creates the staged
// deliverable, RemoveStaged discards it, and Submit promotes it: every unmet
// criterion becomes overridden, the previously submitted deliverable is
// deleted, and the staged deliverable takes its place. Submit is the only
// path from staged to submitted, and it runs in a single transaction.
package submission
