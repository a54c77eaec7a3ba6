package sync

import (
	"context"
	"sort"

	"github.com/opentracing/opentracing-go"

	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/interfaces"
	bichonimap "github.com/bichon-mail/bichon/services/imap"
	"github.com/bichon-mail/bichon/services/envelope"
)

// pageSizeFor picks the per-page size for fetchFull: the folder limit when
// set (further clamped against sync_batch_size), else sync_batch_size.
func pageSizeFor(account *models.Account, folderLimit *int) int {
	batch := account.EffectiveSyncBatchSize()
	if folderLimit == nil {
		return batch
	}
	if *folderLimit < batch {
		return *folderLimit
	}
	return batch
}

// fetchFull performs a paginated fetch of every message in a folder, per
// spec section 4.6.
func (e *Engine) fetchFull(ctx context.Context, account *models.Account, mailbox *models.Mailbox, total uint32) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sync.Engine.fetchFull")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", account.ID)
	span.SetTag("mailbox.id", mailbox.ID)

	folderLimit := account.EffectiveFolderLimit()
	effectiveTotal := total
	if folderLimit != nil {
		limit := uint32(*folderLimit)
		if effectiveTotal > limit {
			effectiveTotal = limit
		}
	}
	if effectiveTotal == 0 {
		return 0, nil
	}

	size := pageSizeFor(account, folderLimit)
	desc := folderLimit != nil
	totalBatches := int((effectiveTotal + uint32(size) - 1) / uint32(size))

	e.tracker.SetInitialCurrentSyncingFolder(account.ID, mailbox.Name, totalBatches)

	persisted := 0
	for page := 1; page <= totalBatches; page++ {
		e.tracker.SetCurrentSyncBatchNumber(account.ID, page)

		n, err := e.fetchPage(ctx, account, mailbox, page, size, desc)
		if err != nil {
			return persisted, err
		}
		persisted += n
	}

	return persisted, nil
}

func (e *Engine) fetchPage(ctx context.Context, account *models.Account, mailbox *models.Mailbox, page, pageSize int, desc bool) (int, error) {
	sess, err := e.leaseSession(ctx, account.ID)
	if err != nil {
		return 0, err
	}
	defer e.pool.Release(account.ID, sess)

	raw, err := sess.BatchRetrieveEmails(ctx, mailbox.EncodedName, page, pageSize, desc)
	if err != nil {
		wrapped := errors.Wrap(errors.ImapCommandFailed, "batch retrieve failed", err)
		e.reportError(account.ID, wrapped)
		return 0, wrapped
	}

	return e.persistMessages(ctx, account.ID, mailbox.ID, raw)
}

// fetchByDate runs a date-bounded UID SEARCH, clips to the folder limit
// and fetches in sync_batch_size chunks, per spec section 4.6.
func (e *Engine) fetchByDate(ctx context.Context, account *models.Account, mailbox *models.Mailbox, direction enum.FetchDirection) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sync.Engine.fetchByDate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", account.ID)
	span.SetTag("mailbox.id", mailbox.ID)
	span.SetTag("direction", direction.String())

	sess, err := e.leaseSession(ctx, account.ID)
	if err != nil {
		return 0, err
	}

	var uids []uint32
	if direction == enum.DirectionSince {
		uids, err = sess.UIDSearchSince(ctx, mailbox.EncodedName, *account.DateSince)
	} else {
		uids, err = sess.UIDSearchBefore(ctx, mailbox.EncodedName, *account.DateBefore)
	}
	e.pool.Release(account.ID, sess)
	if err != nil {
		wrapped := errors.Wrap(errors.ImapCommandFailed, "uid search failed", err)
		e.reportError(account.ID, wrapped)
		return 0, wrapped
	}
	if len(uids) == 0 {
		return 0, nil
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	uids = bichonimap.ClipToFolderLimit(uids, account.EffectiveFolderLimit(), direction)

	batches, err := bichonimap.Plan(uids, account.EffectiveSyncBatchSize(), false)
	if err != nil {
		return 0, errors.Wrap(errors.InternalError, "failed to plan uid batches", err)
	}

	e.tracker.SetInitialCurrentSyncingFolder(account.ID, mailbox.Name, len(batches))

	persisted := 0
	for i, expr := range batches {
		e.tracker.SetCurrentSyncBatchNumber(account.ID, i+1)

		n, err := e.fetchUIDBatch(ctx, account, mailbox, expr)
		if err != nil {
			return persisted, err
		}
		persisted += n
	}

	return persisted, nil
}

func (e *Engine) fetchUIDBatch(ctx context.Context, account *models.Account, mailbox *models.Mailbox, uidExpr string) (int, error) {
	sess, err := e.leaseSession(ctx, account.ID)
	if err != nil {
		return 0, err
	}
	defer e.pool.Release(account.ID, sess)

	raw, err := sess.UIDBatchRetrieveEmails(ctx, mailbox.EncodedName, uidExpr)
	if err != nil {
		wrapped := errors.Wrap(errors.ImapCommandFailed, "uid batch retrieve failed", err)
		e.reportError(account.ID, wrapped)
		return 0, wrapped
	}

	return e.persistMessages(ctx, account.ID, mailbox.ID, raw)
}

// incremental fetches only what has arrived since the last known index
// position, falling back to a date-bounded or full fetch when the index
// has no recorded max UID (a lost local cache), per spec section 4.6.
func (e *Engine) incremental(ctx context.Context, account *models.Account, local, remote *models.Mailbox) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sync.Engine.incremental")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", account.ID)
	span.SetTag("mailbox.id", local.ID)

	if remote.Exists == 0 {
		return 0, nil
	}

	maxUID, err := e.envelopes.GetMaxUID(ctx, account.ID, local.ID)
	if err != nil {
		return 0, errors.Wrap(errors.InternalError, "failed to read max uid from index", err)
	}

	if maxUID != nil {
		sess, err := e.leaseSession(ctx, account.ID)
		if err != nil {
			return 0, err
		}
		raw, err := sess.FetchNewMail(ctx, local.EncodedName, *maxUID+1, account.DateBefore)
		e.pool.Release(account.ID, sess)
		if err != nil {
			wrapped := errors.Wrap(errors.ImapCommandFailed, "fetch new mail failed", err)
			e.reportError(account.ID, wrapped)
			return 0, wrapped
		}
		return e.persistMessages(ctx, account.ID, local.ID, raw)
	}

	if account.DateSince != nil {
		return e.fetchByDate(ctx, account, local, enum.DirectionSince)
	}
	return e.fetchFull(ctx, account, local, remote.Exists)
}

// persistMessages extracts envelopes from raw fetched messages, writes
// them to the envelope index and archives the raw bytes to the EML index.
func (e *Engine) persistMessages(ctx context.Context, accountID, mailboxID string, raw []interfaces.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	envelopes := make([]*models.Envelope, 0, len(raw))
	for _, msg := range raw {
		env, err := envelope.ExtractFromFetch(accountID, mailboxID, envelope.FetchedMessage{
			UID:          msg.UID,
			InternalDate: msg.InternalDate,
			Size:         msg.Size,
			Body:         msg.Body,
		})
		if err != nil {
			e.reportError(accountID, err)
			continue
		}
		envelopes = append(envelopes, env)

		if e.eml != nil {
			if err := e.eml.PutMessage(ctx, accountID, mailboxID, msg.UID, msg.Body); err != nil {
				e.reportError(accountID, err)
			}
		}
	}

	if len(envelopes) == 0 {
		return 0, nil
	}

	if err := e.envelopes.BulkInsert(ctx, envelopes); err != nil {
		return 0, errors.Wrap(errors.InternalError, "failed to bulk insert envelopes", err)
	}

	return len(envelopes), nil
}
