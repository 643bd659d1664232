package constants

const (
	SessionStatusWaiting    = "waiting"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
)

const (
	ChatMessageTypeText   = "TEXT"
	ChatMessageTypeSystem = "SYSTEM"
)
