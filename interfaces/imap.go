package interfaces

import (
	"context"
	"time"
)

// MailboxSummary is the result of examining a folder: EXAMINE/SELECT
// response fields the reconciler and fetch flow need.
type MailboxSummary struct {
	Name        string
	EncodedName string
	Exists      uint32
	Unseen      uint32
	UidNext     uint32
	UidValidity *uint32
	Attributes  []string
}

// Session is the IMAP client surface consumed by C1/C6/C7 (spec §6). It
// abstracts over emersion/go-imap/client so the fetch flow and reconciler
// never import the wire library directly.
type Session interface {
	ListAllMailboxes(ctx context.Context) ([]MailboxSummary, error)
	ExamineMailbox(ctx context.Context, encodedName string) (*MailboxSummary, error)
	SelectMailbox(ctx context.Context, encodedName string) (*MailboxSummary, error)

	UIDSearchSince(ctx context.Context, encodedName string, since time.Time) ([]uint32, error)
	UIDSearchBefore(ctx context.Context, encodedName string, before time.Time) ([]uint32, error)

	UIDBatchRetrieveEmails(ctx context.Context, encodedName, uidExpr string) ([]RawMessage, error)
	BatchRetrieveEmails(ctx context.Context, encodedName string, page, pageSize int, desc bool) ([]RawMessage, error)
	FetchNewMail(ctx context.Context, encodedName string, fromUID uint32, beforeDate *time.Time) ([]RawMessage, error)

	Noop(ctx context.Context) error
	ID(ctx context.Context, pairs map[string]string) (map[string]string, error)
	Capabilities(ctx context.Context) ([]string, error)
	Close() error
}

// RawMessage is one fetched message: everything the envelope extractor
// (C2) needs, plus the raw bytes for the EML index.
type RawMessage struct {
	UID          uint32
	InternalDate time.Time
	Size         uint32
	Body         []byte
}

// SessionPool leases authenticated, capability-checked sessions per
// account (C3). Leasing blocks when the pool is exhausted.
type SessionPool interface {
	Lease(ctx context.Context, accountID string) (Session, error)
	Release(accountID string, sess Session)
}
