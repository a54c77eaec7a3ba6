package sync

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"

	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/interfaces"
)

// rebuild purges both indexes for a folder and re-fetches it using the
// account's date policy: date_since, then date_before, else a full fetch
// of the remote count. Used both for UIDVALIDITY changes and for folders
// new to the directory.
func (e *Engine) rebuild(ctx context.Context, account *models.Account, local, remote *models.Mailbox) error {
	if err := e.envelopes.DeleteMailboxEnvelopes(ctx, account.ID, local.ID); err != nil {
		return errors.Wrap(errors.InternalError, "failed to purge envelope index", err)
	}
	if e.eml != nil {
		if err := e.eml.DeleteMailboxMessages(ctx, account.ID, local.ID); err != nil {
			return errors.Wrap(errors.InternalError, "failed to purge eml index", err)
		}
	}

	if account.DateSince != nil || account.DateBefore != nil {
		_, err := e.fetchByDate(ctx, account, local, account.Direction())
		return err
	}

	_, err := e.fetchFull(ctx, account, local, remote.Exists)
	return err
}

// reconcile diffs local against remote folders (C7) and brings the
// directory in line: intersecting folders are rebuilt or incrementally
// synced depending on UIDVALIDITY, missing folders are inserted and
// rebuilt concurrently under the process-wide semaphore.
func (e *Engine) reconcile(ctx context.Context, account *models.Account, remote []*models.Mailbox) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sync.Engine.reconcile")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", account.ID)

	local, err := e.mailboxes.ListAll(ctx, account.ID)
	if err != nil {
		return errors.Wrap(errors.InternalError, "failed to list local mailboxes", err)
	}

	upserts := make([]*models.Mailbox, 0, len(remote))

	for _, pair := range interfaces.FindIntersecting(local, remote) {
		skipped, err := e.reconcileIntersecting(ctx, account, pair.Local, pair.Remote)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		e.tracker.SetFolderInitialSyncCompleted(account.ID, pair.Remote.Name)
		upserts = append(upserts, pair.Remote)
	}

	// batch_upsert only after every intersecting folder succeeded, so a
	// mid-run failure never commits a partial UIDVALIDITY advance.
	if len(upserts) > 0 {
		if err := e.mailboxes.BatchUpsert(ctx, upserts); err != nil {
			return errors.Wrap(errors.InternalError, "failed to upsert reconciled mailboxes", err)
		}
	}

	missing := interfaces.FindMissing(local, remote)
	if len(missing) == 0 {
		return nil
	}

	if err := e.mailboxes.BatchInsert(ctx, missing); err != nil {
		return errors.Wrap(errors.InternalError, "failed to insert new mailboxes", err)
	}

	return e.rebuildMissing(ctx, account, missing)
}

// reconcileIntersecting applies the UIDVALIDITY decision for one folder
// present both locally and remotely. The skipped return reports the
// unknown-UIDVALIDITY case: no purge, no upsert, the folder is left
// untouched for this run.
func (e *Engine) reconcileIntersecting(ctx context.Context, account *models.Account, local, remote *models.Mailbox) (skipped bool, err error) {
	if !models.SameUidValidity(local, remote) {
		if !remote.UidValidityKnown() {
			e.log.Warnf("account %s: folder %q reports no UIDVALIDITY, skipping to avoid a destructive rebuild", account.ID, remote.Name)
			return true, nil
		}
		return false, e.rebuild(ctx, account, local, remote)
	}

	_, err = e.incremental(ctx, account, local, remote)
	return false, err
}

// rebuildMissing rebuilds every newly-discovered non-empty folder
// concurrently, bounded by the process-wide semaphore. The first error
// aborts the remaining work; folders already rebuilt stay persisted.
func (e *Engine) rebuildMissing(ctx context.Context, account *models.Account, missing []*models.Mailbox) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstErr error
	)

	for _, mbox := range missing {
		if mbox.Exists == 0 {
			continue
		}

		if err := e.acquire(ctx); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer e.release()

			// a never-seen folder has no local counterpart: the mailbox
			// itself stands in for both sides of the rebuild.
			if err := e.rebuild(ctx, account, mbox, mbox); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			e.tracker.SetFolderInitialSyncCompleted(account.ID, mbox.Name)
		}()
	}

	wg.Wait()
	return firstErr
}
