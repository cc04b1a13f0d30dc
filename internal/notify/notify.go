package notify

import (
	"context"
	"errors"
	"time"

	"docflow/internal/model"
)

// ErrFailed is the single error kind surfaced for any distribution failure.
// The document stays eligible for retry; the pipeline never treats a notifier
// error as terminal.
var ErrFailed = errors.New("distribution failed")

// Receipt is the transport confirmation of a delivered notification.
type Receipt struct {
	Transport string    `json:"transport"`
	SentAt    time.Time `json:"sent_at"`
}

// Notifier delivers a document's analysis to a recipient. Implementations are
// treated as fallible remote operations; in-flight sends are not cancellable.
type Notifier interface {
	Send(ctx context.Context, doc model.Document, recipient, message string) (Receipt, error)
}
