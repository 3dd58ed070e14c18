// Package notify emits lifecycle events to whoever delivers reminders and
// e-mails to users.
//
// Events are emitted after the transaction that caused them has committed.
// Delivery is fire-and-forget: a failed notification is logged and never
// undoes the committed change. Dispatch implements that policy on top of any
// Notifier.
package notify
