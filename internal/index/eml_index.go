package index

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/bichon-mail/bichon/interfaces"
	"github.com/bichon-mail/bichon/internal/tracing"
)

// r2EMLIndex is the concrete default raw-message sink: one object per
// message in an S3/R2-compatible bucket, keyed by (account, mailbox, uid).
type r2EMLIndex struct {
	storage interfaces.StorageService
}

func NewR2EMLIndex(storage interfaces.StorageService) interfaces.EMLIndex {
	return &r2EMLIndex{storage: storage}
}

func messageKey(accountID, mailboxID string, uid uint32) string {
	return fmt.Sprintf("%s/%s/%d.eml", accountID, mailboxID, uid)
}

func mailboxPrefix(accountID, mailboxID string) string {
	return fmt.Sprintf("%s/%s/", accountID, mailboxID)
}

func (idx *r2EMLIndex) PutMessage(ctx context.Context, accountID, mailboxID string, uid uint32, raw []byte) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "r2EMLIndex.PutMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", accountID)
	span.SetTag("mailbox.id", mailboxID)
	span.SetTag("uid", uid)

	err := idx.storage.Upload(ctx, messageKey(accountID, mailboxID, uid), raw, "message/rfc822")
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (idx *r2EMLIndex) DeleteMailboxMessages(ctx context.Context, accountID, mailboxID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "r2EMLIndex.DeleteMailboxMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", accountID)
	span.SetTag("mailbox.id", mailboxID)

	err := idx.storage.DeletePrefix(ctx, mailboxPrefix(accountID, mailboxID))
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
