package submission

import "github.com/nao1215/feedtrack/internal/model"

// State is the deliverable state of a task.
type State int

const (
	// NoStagedNoSubmitted is a task nothing was uploaded for yet.
	NoStagedNoSubmitted State = iota
	// StagedNoSubmitted is a first upload waiting to be submitted.
	StagedNoSubmitted
	// NoStagedSubmitted is a submitted task without a pending revision.
	NoStagedSubmitted
	// StagedSubmitted is a submitted task with a pending revision.
	StagedSubmitted
)

// StateOf derives the state from the task's deliverable pointers.
func StateOf(task *model.Task) State {
	switch {
	case task.HasStaged() && task.HasSubmitted():
		return StagedSubmitted
	case task.HasStaged():
		return StagedNoSubmitted
	case task.HasSubmitted():
		return NoStagedSubmitted
	default:
		return NoStagedNoSubmitted
	}
}

// String returns a human readable name.
func (s State) String() string {
	switch s {
	case NoStagedNoSubmitted:
		return "no staged, no submitted"
	case StagedNoSubmitted:
		return "staged, no submitted"
	case NoStagedSubmitted:
		return "no staged, submitted"
	case StagedSubmitted:
		return "staged, submitted"
	default:
		return "unknown"
	}
}

// CanUpload reports whether Upload is valid in this state.
func (s State) CanUpload() bool {
	return s == NoStagedNoSubmitted || s == NoStagedSubmitted
}

// CanSubmit reports whether Submit is valid in this state, ignoring locks.
func (s State) CanSubmit() bool {
	return s == StagedNoSubmitted || s == StagedSubmitted
}
