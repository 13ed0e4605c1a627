package domain

import "time"

// Severity drives how a notification is rendered.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
)

// Notice is the payload of a notify event.
type Notice struct {
	Title    string
	Body     string
	Severity Severity
}

// Notification is a Notice accepted by the notification queue.
type Notification struct {
	ID        uint64
	Title     string
	Body      string
	Severity  Severity
	CreatedAt time.Time
}

// DisplayTitle falls back to "Notice" for untitled notifications.
func (n Notification) DisplayTitle() string {
	if n.Title == "" {
		return "Notice"
	}
	return n.Title
}
