// Package bot turns inbound chat events into account and verification
// operations and replies through an injected Messenger.
package bot

import "context"

// EventKind distinguishes the inbound event shapes the handler understands.
type EventKind int

const (
	EventCommand EventKind = iota
	EventCallback
	EventText
)

// Event is one inbound chat event, independent of the chat library.
type Event struct {
	Kind      EventKind
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	LastName  string

	// Command is the bot command without the slash, Args its payload.
	Command string
	Args    string
	Text    string

	CallbackID   string
	CallbackData string
}

// Button is an inline keyboard button. Exactly one of URL or CallbackData is set.
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

// OutgoingMessage is a text message with optional rows of inline buttons.
type OutgoingMessage struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

// Photo is an image upload with a caption.
type Photo struct {
	ChatID   int64
	FileName string
	Data     []byte
	Caption  string
}

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	SendMessage(ctx context.Context, msg OutgoingMessage) error
	SendPhoto(ctx context.Context, photo Photo) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
