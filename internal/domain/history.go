package domain

import "time"

// History sources.
const (
	SourceCLI       = "cli"
	SourceDashboard = "dashboard"
	SourceConsole   = "console"
	SourceSchedule  = "schedule"
)

// History statuses.
const (
	StatusOK    = "OK"
	StatusEmpty = "EMPTY"
	StatusError = "ERROR"
)

// HistoryEntry records one query execution.
type HistoryEntry struct {
	ID           string
	Source       string
	Template     *string
	Query        string
	Status       string
	ErrorMessage *string
	RowCount     int64
	DurationMs   int64
	CreatedAt    time.Time
}

// HistoryFilter holds filter parameters for listing query history.
type HistoryFilter struct {
	Source *string
	Status *string
	Page   PageRequest
}
