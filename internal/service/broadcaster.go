package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
}

// WebSocket message types sent to a session
const (
	MsgJobStatus    = "job_status"
	MsgJobCompleted = "job_completed"
	MsgJobFailed    = "job_failed"
)
