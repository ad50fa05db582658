package tasks

import (
	"fmt"

	"github.com/desertthunder/stemhub/internal/models"
)

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
	PollPush Phase = iota
	PushSettled
	FetchActivity
	ExportActivity
)

func (p Phase) String() string {
	switch p {
	case PollPush:
		return "poll_push"
	case PushSettled:
		return "push_settled"
	case FetchActivity:
		return "fetch_activity"
	case ExportActivity:
		return "export_activity"
	default:
		return ""
	}
}

func pollUpdate(step, total int, push *models.PushStatus) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollPush,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Push %s is %s", step, total, push.ID, push.Status),
		Data:    push,
	}
}

func settledUpdate(step, total int, push *models.PushStatus) ProgressUpdate {
	msg := fmt.Sprintf("Push %s %s", push.ID, push.Status)
	if push.Reason != "" {
		msg += ": " + push.Reason
	}
	return ProgressUpdate{
		Phase:   PushSettled,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    push,
	}
}

func fetchingActivityUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchActivity,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching activity: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportActivity,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportActivity,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
