// Package model defines the core data structures shared across feedtrack.
//
// This package contains the following main types:
//   - Task: the unit of work a student submits deliverables for
//   - Deliverable: an uploaded document, either staged or submitted
//   - FeedbackCriterion: a supervisor-authored compliance requirement
//   - Actor: the identity an operation runs as
//
// It also owns the error taxonomy (ErrNotFound, ErrPreconditionFailed, ...)
// so that every layer can match failures with errors.Is without importing
// the layer that produced them.
package model
