package interfaces

import (
	"context"

	"github.com/bichon-mail/bichon/internal/models"
)

// MailboxRepository is the Mailbox Directory (C4). It exclusively owns
// persisted Mailbox rows; only the Reconciler writes through it, and only
// after a successful fetch.
type MailboxRepository interface {
	ListAll(ctx context.Context, accountID string) ([]*models.Mailbox, error)
	BatchInsert(ctx context.Context, mailboxes []*models.Mailbox) error
	BatchUpsert(ctx context.Context, mailboxes []*models.Mailbox) error
}

// MailboxPair is one (local, remote) match produced by FindIntersecting.
type MailboxPair struct {
	Local  *models.Mailbox
	Remote *models.Mailbox
}

// FindIntersecting pairs folders present in both sets, matched by name.
func FindIntersecting(local, remote []*models.Mailbox) []MailboxPair {
	remoteByName := make(map[string]*models.Mailbox, len(remote))
	for _, m := range remote {
		remoteByName[m.Name] = m
	}

	var pairs []MailboxPair
	for _, l := range local {
		if r, ok := remoteByName[l.Name]; ok {
			pairs = append(pairs, MailboxPair{Local: l, Remote: r})
		}
	}
	return pairs
}

// FindMissing returns folders present on the server but not locally.
func FindMissing(local, remote []*models.Mailbox) []*models.Mailbox {
	localByName := make(map[string]struct{}, len(local))
	for _, m := range local {
		localByName[m.Name] = struct{}{}
	}

	var missing []*models.Mailbox
	for _, r := range remote {
		if _, ok := localByName[r.Name]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
