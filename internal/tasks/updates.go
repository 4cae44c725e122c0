package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveHousehold Phase = iota
	RunAction
	ShuffleTonie
	ClearTonie
	UploadFile
)

func (p Phase) String() string {
	switch p {
	case ResolveHousehold:
		return "resolve_household"
	case RunAction:
		return "run_action"
	case ShuffleTonie:
		return "shuffle_tonie"
	case ClearTonie:
		return "clear_tonie"
	case UploadFile:
		return "upload_file"
	default:
		return ""
	}
}

func resolveHouseholdUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveHousehold,
		Step:    1,
		Total:   1,
		Message: "Resolving household...",
	}
}

func actionUpdate(step, total int, actionType, target string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunAction,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Running %s on %s...", actionType, target),
	}
}

func shuffleUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ShuffleTonie,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Shuffling chapters of %s...", name),
	}
}

func clearUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearTonie,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Clearing chapters of %s...", name),
	}
}

func uploadUpdate(step, total int, filename string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Uploading %s...", filename),
	}
}
