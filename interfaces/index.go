package interfaces

import "context"

import "github.com/bichon-mail/bichon/internal/models"

// EnvelopeIndex is the external envelope store. The core only ever
// produces Envelope records; ownership of the index lives outside the
// engine, reached only through this interface.
type EnvelopeIndex interface {
	DeleteMailboxEnvelopes(ctx context.Context, accountID, mailboxID string) error
	GetMaxUID(ctx context.Context, accountID, mailboxID string) (*uint32, error)
	BulkInsert(ctx context.Context, envelopes []*models.Envelope) error
}

// EMLIndex is the external raw-message blob store, addressable by
// (account_id, mailbox_id, uid).
type EMLIndex interface {
	DeleteMailboxMessages(ctx context.Context, accountID, mailboxID string) error
	PutMessage(ctx context.Context, accountID, mailboxID string, uid uint32, raw []byte) error
}
