package model

// Actor identifies who an operation runs as.
// Authorization itself happens before the core is called; the core only
// narrows visibility to tasks the actor owns or supervises.
type Actor struct {
	// UserID is the identifier of the requesting user.
	UserID int64

	// System marks a trusted internal caller. System actors skip ownership
	// checks but are still subject to every state and ID-set validation.
	System bool
}

// SystemActor returns the elevated actor used by internal orchestration,
// such as the compliance evaluator writing classification results.
func SystemActor() Actor {
	return Actor{System: true}
}

// User returns an ordinary actor for the given user.
func User(id int64) Actor {
	return Actor{UserID: id}
}

// Owns reports whether the actor may act as the student of the task.
func (a Actor) Owns(t *Task) bool {
	return a.System || a.UserID == t.OwnerID
}

// Supervises reports whether the actor may act as the supervisor of the task.
func (a Actor) Supervises(t *Task) bool {
	return a.System || a.UserID == t.SupervisorID
}

// Participates reports whether the actor is either side of the task.
func (a Actor) Participates(t *Task) bool {
	return a.Owns(t) || a.Supervises(t)
}
