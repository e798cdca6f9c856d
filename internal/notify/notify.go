// Package notify delivers outbound messages to the chat platform. Every
// attempt returns a typed Result instead of an error so callers can aggregate
// delivery outcomes; nothing in this package retries.
package notify

import "context"

// Attachment kinds selectable on a channel post. Unknown kinds are sent as
// generic documents.
const (
	KindPhoto    = "photo"
	KindVideo    = "video"
	KindDocument = "document"
)

// Attachment references an uploaded file to post alongside a message.
type Attachment struct {
	Kind    string // KindPhoto, KindVideo, or anything else for a document.
	FileRef string // Platform file id.
}

// Message is a channel post payload.
type Message struct {
	Text       string
	Attachment *Attachment
	Protected  bool // Tag the post as download-protected.
}

// Result is the typed outcome of a single send attempt.
type Result struct {
	Kind   string // models.NotifyKind* value.
	Target int64  // Destination chat or user id.
	OK     bool
	Reason string // Failure reason, empty on success.
}

// Notifier posts messages on behalf of the bot. Implementations must be
// fail-soft: a failed send is reported in the Result, never panicked or
// retried.
type Notifier interface {
	// SendDirect delivers a direct message to a user.
	SendDirect(ctx context.Context, userID int64, text string) Result
	// PostToChannel posts text and optional media to a channel.
	PostToChannel(ctx context.Context, channelID int64, msg Message) Result
	// GrantFreeAccess grants a user access to the free channel once their
	// request clears the approval delay.
	GrantFreeAccess(ctx context.Context, userID int64, username string) Result
}
