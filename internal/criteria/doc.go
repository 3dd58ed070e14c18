// Package criteria owns the feedback criteria of a task and their status
// transitions.
//
// Criteria are authored by the task's supervisor once a deliverable has been
// submitted. They start unmet and become met through the compliance
// evaluator or explicit supervisor input. They become overridden through the
// submission cascade or a manual toggle. Every mutation runs inside a single
// store transaction, so a failing sub-operation of Provide leaves the
// criteria exactly as they were.
package criteria
