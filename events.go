package imgtidy

import "time"

// Event types delivered to an EventHandler.
const (
	EventTypeBatchStarted  = "batch_started"
	EventTypeFileResult    = "file_result"
	EventTypeBatchComplete = "batch_complete"
	EventTypeWarning       = "warning"
	EventTypeError         = "error"
)

// Event is the interface for all imgtidy events.
type Event interface {
	Type() string
	Timestamp() int64
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string `json:"type"`
	Time      int64  `json:"timestamp"`
}

func (e BaseEvent) Type() string     { return e.EventType }
func (e BaseEvent) Timestamp() int64 { return e.Time }

// BatchStartedEvent is sent before an operation touches any file.
type BatchStartedEvent struct {
	BaseEvent
	Operation  string   `json:"operation"`
	Roots      []string `json:"roots"`
	TotalFiles int      `json:"total_files"`
	DryRun     bool     `json:"dry_run"`
}

// FileResultEvent reports the outcome of one file.
type FileResultEvent struct {
	BaseEvent
	Path       string `json:"path"`
	Target     string `json:"target,omitempty"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
	Policy     string `json:"policy,omitempty"`
	Before     [2]int `json:"before"` // width, height; zero when not decoded
	After      [2]int `json:"after"`
	InputSize  uint64 `json:"input_size,omitempty"`
	OutputSize uint64 `json:"output_size,omitempty"`
}

// WarningEvent represents a warning message.
type WarningEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// ErrorEvent represents an error.
type ErrorEvent struct {
	BaseEvent
	Title      string `json:"title"`
	Message    string `json:"message"`
	Context    string `json:"context"`
	Suggestion string `json:"suggestion"`
}

// BatchCompleteEvent represents batch completion.
type BatchCompleteEvent struct {
	BaseEvent
	Operation                 string  `json:"operation"`
	Done                      int     `json:"done"`
	Skipped                   int     `json:"skipped"`
	Failed                    int     `json:"failed"`
	TotalSizeReductionPercent float64 `json:"total_size_reduction_percent"`
	DryRun                    bool    `json:"dry_run"`
}

// EventHandler is called with events during an operation. Handlers may be
// called from several goroutines when workers > 1.
type EventHandler func(Event) error

// NewTimestamp returns the current Unix timestamp.
func NewTimestamp() int64 {
	return time.Now().Unix()
}
