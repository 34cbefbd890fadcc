package models

// ProgressUpdate is broadcast over the websocket hub while downloads and
// background jobs run. Progress is a percentage in [0,100], or -1 for a
// terminal error with the reason in Message.
type ProgressUpdate struct {
	JobID    string  `json:"jobId"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	ItemID   string  `json:"item_id,omitempty"` // chapter key for downloads
	Status   string  `json:"status"`            // e.g. "in_progress", "completed", "failed"
	Done     bool    `json:"done"`
}
