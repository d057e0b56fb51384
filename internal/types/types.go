// Package types holds the JSON wire types shared by the proxy handlers and
// the board's backend client.
package types

// ActivityType classifies an activity log record.
type ActivityType string

const (
	ActivityTask    ActivityType = "task"
	ActivitySubtask ActivityType = "subtask"
	ActivitySection ActivityType = "section"
	ActivityNote    ActivityType = "note"
)

// ActivityEvent is the body of POST /functions/airtable.
type ActivityEvent struct {
	Type         ActivityType `json:"type"`
	TaskID       string       `json:"taskId,omitempty"`
	TaskTitle    string       `json:"taskTitle,omitempty"`
	SubtaskID    string       `json:"subtaskId,omitempty"`
	SubtaskTitle string       `json:"subtaskTitle,omitempty"`
	SectionTitle string       `json:"sectionTitle,omitempty"`
	Completed    *bool        `json:"completed,omitempty"`
	Note         *string      `json:"note,omitempty"`
	Player       string       `json:"player"`
	DayOfWeek    string       `json:"dayOfWeek"`
	DateISO      string       `json:"dateISO"`
}

// PlayerStatus is a roster entry's activity flag.
type PlayerStatus string

const (
	StatusActive   PlayerStatus = "Active"
	StatusInactive PlayerStatus = "Inactive"
)

// Valid reports whether s is one of the known statuses.
func (s PlayerStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Toggled returns the opposite status. Anything but Active toggles to Active.
func (s PlayerStatus) Toggled() PlayerStatus {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// Player is one roster entry.
type Player struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Status PlayerStatus `json:"status"`
}

// PlayersResponse is the body of GET /functions/players.
type PlayersResponse struct {
	Players []Player `json:"players"`
}

// PlayersDebugResponse reports which roster settings the proxy sees. It never
// carries the token.
type PlayersDebugResponse struct {
	HasAPIKey   bool   `json:"hasApiKey"`
	HasBaseID   bool   `json:"hasBaseId"`
	BaseID      string `json:"baseId"`
	TableName   string `json:"tableName"`
	ViewName    string `json:"viewName"`
	NameField   string `json:"nameField"`
	StatusField string `json:"statusField"`
}

// UpstreamErrorResponse wraps a failed roster read.
type UpstreamErrorResponse struct {
	Message        string `json:"message"`
	AirtableStatus int    `json:"airtableStatus"`
	AirtableError  any    `json:"airtableError"`
}

// VerifyRequest is the body of POST /functions/players-verify.
type VerifyRequest struct {
	PlayerID string `json:"playerId"`
	Password string `json:"password"`
}

// VerifyResponse is the success body of players-verify.
type VerifyResponse struct {
	OK bool `json:"ok"`
}

// MessageResponse is the error body of players-verify.
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdateStatusRequest is the body of POST /functions/players-update.
type UpdateStatusRequest struct {
	PlayerID      string       `json:"playerId"`
	DesiredStatus PlayerStatus `json:"desiredStatus"`
	Password      string       `json:"password"`
}

// UpdateStatusResponse is the success body of players-update.
type UpdateStatusResponse struct {
	Status PlayerStatus `json:"status"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
