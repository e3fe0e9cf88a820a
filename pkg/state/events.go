package state

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventFeedUpdated    EventType = "feed_updated"
	EventSessionUpdated EventType = "session_updated"
	EventLogAppended    EventType = "log_appended"
	EventSendingChanged EventType = "sending_changed"
	EventDraftCleared   EventType = "draft_cleared"
)

// Event represents a change to the client state.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
