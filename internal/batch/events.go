package batch

// EventKind discriminates progress events on a run's event channel.
type EventKind string

const (
	// EventStatus announces a phase change for the current target.
	EventStatus EventKind = "status"
	// EventFileProgress is emitted after each file finishes, successfully
	// or not.
	EventFileProgress EventKind = "file_progress"
)

// ProgressEvent is one update on a run's event stream. Status events carry
// Message; file events carry the file fields and running counts for the
// current target.
type ProgressEvent struct {
	Kind      EventKind `json:"kind"`
	Target    string    `json:"target"`
	Message   string    `json:"message,omitempty"`
	File      string    `json:"file,omitempty"`
	Path      string    `json:"path,omitempty"`
	Bytes     int64     `json:"bytes,omitempty"`
	Completed int       `json:"completed,omitempty"`
	Total     int       `json:"total,omitempty"`
	Error     string    `json:"error,omitempty"`
}
