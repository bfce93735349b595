package domain

import "time"

// Message is one accepted inbound webhook event. Rows are immutable after
// creation; at most one CommandExecution is created as a consequence of it.
type Message struct {
	ID        int64     `db:"id"`
	Sender    string    `db:"sender"`
	Timestamp string    `db:"timestamp"` // origin-supplied, free text, not validated
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func NewMessage(sender, timestamp, content string) *Message {
	return &Message{
		Sender:    sender,
		Timestamp: timestamp,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// MessageWithExecution is the joined row served to the dashboard. Execution is
// nil for messages that never triggered a command.
type MessageWithExecution struct {
	Message
	Execution *CommandExecution
}
