package sync

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/internal/utils"
	bichonimap "github.com/bichon-mail/bichon/services/imap"
)

// syncType decides what kind of run an account is due for: no tracked
// state means this is the account's first run.
func (e *Engine) syncType(account *models.Account) enum.SyncType {
	if account.AccountType != enum.AccountTypeIMAP {
		return enum.SyncTypeSkip
	}
	state := e.tracker.Get(account.ID)
	if state == nil || !state.IsInitialSyncCompleted {
		return enum.SyncTypeInitialSync
	}
	return enum.SyncTypeIncremental
}

// Run drives one sync attempt for account, per the Sync Orchestrator
// (C8). It never returns an error for a failed individual sync: failures
// are recorded to the running-state tracker and the status dispatcher,
// and the caller's scheduler is expected to retry on its next tick.
func (e *Engine) Run(ctx context.Context, account *models.Account) error {
	if account.AccountType != enum.AccountTypeIMAP {
		return errors.Raise(errors.InvalidParameter, "account is not an IMAP account")
	}

	ctx = utils.WithAccountID(ctx, account.ID)
	span, ctx := opentracing.StartSpanFromContext(ctx, "sync.Engine.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", account.ID)

	e.tracker.Add(account.ID)

	switch e.syncType(account) {
	case enum.SyncTypeInitialSync:
		span.SetTag("sync.type", "initial")
		e.runInitialSync(ctx, account)
	case enum.SyncTypeIncremental:
		span.SetTag("sync.type", "incremental")
		if !e.tracker.Due(account.ID, time.Now(), e.cooldown) {
			span.SetTag("sync.skipped", "cooldown")
			return nil
		}
		e.runIncremental(ctx, account)
	}

	return nil
}

// remoteFolders fetches the account's subscribed folders from the
// server, examining each to get its current EXAMINE summary.
func (e *Engine) remoteFolders(ctx context.Context, account *models.Account) ([]*models.Mailbox, error) {
	sess, err := e.leaseSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(account.ID, sess)

	folders := make([]*models.Mailbox, 0, len(account.EffectiveSyncFolders()))
	for _, name := range account.EffectiveSyncFolders() {
		encoded, err := bichonimap.EncodeFolderName(name)
		if err != nil {
			return nil, errors.Wrap(errors.InvalidParameter, "failed to encode folder name", err)
		}

		summary, err := sess.ExamineMailbox(ctx, encoded)
		if err != nil {
			wrapped := errors.Wrap(errors.ImapCommandFailed, "failed to examine mailbox "+name, err)
			e.reportError(account.ID, wrapped)
			return nil, wrapped
		}

		folders = append(folders, &models.Mailbox{
			ID:          models.NewMailboxID(account.ID, name),
			AccountID:   account.ID,
			Name:        name,
			EncodedName: summary.EncodedName,
			Attributes:  summary.Attributes,
			Exists:      summary.Exists,
			Unseen:      summary.Unseen,
			UidNext:     summary.UidNext,
			UidValidity: summary.UidValidity,
		})
	}

	return folders, nil
}

// runInitialSync registers running-state, rebuilds every subscribed
// folder from scratch, and records the outcome.
func (e *Engine) runInitialSync(ctx context.Context, account *models.Account) {
	remote, err := e.remoteFolders(ctx, account)
	if err != nil {
		e.tracker.SetInitialSyncFailed(account.ID, time.Now())
		e.reportError(account.ID, err)
		return
	}

	if err := e.mailboxes.BatchInsert(ctx, remote); err != nil {
		e.tracker.SetInitialSyncFailed(account.ID, time.Now())
		e.reportError(account.ID, errors.Wrap(errors.InternalError, "failed to insert initial mailboxes", err))
		return
	}

	if err := e.rebuildMissing(ctx, account, remote); err != nil {
		e.tracker.SetInitialSyncFailed(account.ID, time.Now())
		e.reportError(account.ID, err)
		return
	}

	e.tracker.SetInitialSyncCompleted(account.ID, time.Now())
}

// runIncremental lists local mailboxes, reconciles them against the
// current remote state, and records the outcome. If the initial-complete
// flag was somehow never set (a crash before it was recorded), a
// successful incremental run sets it now.
func (e *Engine) runIncremental(ctx context.Context, account *models.Account) {
	e.tracker.SetIncrementalSyncStart(account.ID, time.Now())

	remote, err := e.remoteFolders(ctx, account)
	if err != nil {
		e.reportError(account.ID, err)
		return
	}

	if err := e.reconcile(ctx, account, remote); err != nil {
		e.reportError(account.ID, err)
		return
	}

	e.tracker.SetIncrementalSyncEnd(account.ID, time.Now())

	if state := e.tracker.Get(account.ID); state != nil && !state.IsInitialSyncCompleted {
		e.tracker.SetInitialSyncCompleted(account.ID, time.Now())
	}
}
