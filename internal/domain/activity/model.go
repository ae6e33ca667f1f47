package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectScanned ActivityType = "project_scanned"
	TypeProjectRemoved ActivityType = "project_removed"
	TypeHealthUpdated  ActivityType = "health_updated"
	TypeScanCompleted  ActivityType = "scan_completed"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ScanID       string       `json:"scan_id"`
	ProjectID    string       `json:"project_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
