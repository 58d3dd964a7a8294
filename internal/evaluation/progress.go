package evaluation

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventSweepStart      EventType = "sweep_start"
	EventExampleScored   EventType = "example_scored"
	EventExampleCached   EventType = "example_cached"
	EventExampleFailed   EventType = "example_failed"
	EventScoringComplete EventType = "scoring_complete"
	EventConfigComplete  EventType = "config_complete"
	EventSweepComplete   EventType = "sweep_complete"
)

// ProgressEvent represents a progress update. Listeners are called one at
// a time even when the harness works in parallel.
type ProgressEvent struct {
	EventType EventType
	// Question is set for example events.
	Question string
	// Num counts completed examples or configs, Total is the target.
	Num        int
	Total      int
	DurationMs int64
	Details    map[string]any
}

func (h *Harness) notifyProgress(event ProgressEvent) {
	h.progressMu.Lock()
	defer h.progressMu.Unlock()
	for _, listener := range h.listeners {
		listener(event)
	}
}
