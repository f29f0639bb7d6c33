package notification

import "context"

// Message is one notification. QueryID, when set, lets channels that support it
// attach the report results.
type Message struct {
	Subject   string
	Body      string
	Recipient string
	QueryID   string
}

type Notifier interface {
	// Name identifies the channel in logs and errors
	Name() string
	SendNotification(ctx context.Context, msg Message) error
}
