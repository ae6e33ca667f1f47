package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ProjectID    string
	ScanID       string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
