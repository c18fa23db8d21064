package analyses

import (
	"sync"
	"time"
)

// Event is a progress update emitted while an analysis runs.
type Event struct {
	Type       string    `json:"type"` // stage, file, status
	AnalysisID string    `json:"analysis_id"`
	Stage      string    `json:"stage,omitempty"`
	Path       string    `json:"path,omitempty"`
	Status     string    `json:"status,omitempty"`
	Message    string    `json:"message,omitempty"`
	Time       time.Time `json:"time"`
}

// Terminal reports whether the event closes out its analysis.
func (e Event) Terminal() bool {
	return e.Type == "status" && (e.Status == StatusCompleted || e.Status == StatusFailed)
}

// hub fans analysis events out to websocket subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for events of one analysis. The returned cancel
// function must be called to release the subscription.
func (h *hub) Subscribe(analysisID string) (<-chan Event, func()) {
	ch := make(chan Event, 64)

	h.mu.Lock()
	set, ok := h.subs[analysisID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[analysisID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[analysisID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, analysisID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers of its analysis. Slow
// subscribers drop events instead of blocking the pipeline.
func (h *hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.AnalysisID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// eventReporter forwards pipeline progress into the event hub.
type eventReporter struct {
	hub        *hub
	analysisID string
}

func (r *eventReporter) Stage(name string) {
	r.hub.Publish(Event{Type: "stage", AnalysisID: r.analysisID, Stage: name})
}

func (r *eventReporter) File(path string) {
	r.hub.Publish(Event{Type: "file", AnalysisID: r.analysisID, Path: path})
}

func (r *eventReporter) Finish(summary string) {
	r.hub.Publish(Event{Type: "stage", AnalysisID: r.analysisID, Stage: "done", Message: summary})
}
