package models

type PreviewStatus string

const (
	PreviewIdle    PreviewStatus = "idle"
	PreviewLoading PreviewStatus = "loading"
	PreviewSuccess PreviewStatus = "success"
	PreviewError   PreviewStatus = "error"
)

// GeneratedPreview is the per-style generation attempt for one session.
// One instance per style, created when a batch run or retry first touches
// the style and mutated in place as the call resolves. Entries are never
// deleted; the whole collection is dropped when the session is cleared.
type GeneratedPreview struct {
	StyleID  string        `json:"style_id"`
	Status   PreviewStatus `json:"status"`
	ImageURL *string       `json:"image_url,omitempty"`
	Error    *string       `json:"error,omitempty"`
}

type SessionStatus string

const (
	// SessionReady means a source photo is present and generation may start.
	SessionReady SessionStatus = "ready"
	// SessionBatchRunning means the preview batch is in flight.
	SessionBatchRunning SessionStatus = "batch_running"
	// SessionRefining means a refine/custom single-shot call is in flight.
	SessionRefining SessionStatus = "refining"
	// SessionCompleted means a final result image has been produced.
	SessionCompleted SessionStatus = "completed"
)
