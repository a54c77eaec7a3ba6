// Package sync implements the Fetch Flow (C6), Reconciler (C7) and Sync
// Orchestrator (C8): the three components that turn a remote IMAP account
// into persisted Mailbox rows and indexed Envelope records.
package sync

import (
	"context"
	"time"

	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/syncstate"
	"github.com/bichon-mail/bichon/interfaces"
)

// Engine wires the session pool, mailbox directory, indexes and running
// state tracker together. A single Engine instance is shared by every
// account the process is responsible for.
type Engine struct {
	pool       interfaces.SessionPool
	mailboxes  interfaces.MailboxRepository
	envelopes  interfaces.EnvelopeIndex
	eml        interfaces.EMLIndex
	dispatcher interfaces.StatusDispatcher
	tracker    *syncstate.Tracker
	log        logger.Logger

	// semaphore caps concurrent per-folder sync tasks process-wide
	// (spec section 5).
	semaphore chan struct{}

	cooldown time.Duration
}

type Config struct {
	Pool         interfaces.SessionPool
	Mailboxes    interfaces.MailboxRepository
	Envelopes    interfaces.EnvelopeIndex
	EML          interfaces.EMLIndex
	Dispatcher   interfaces.StatusDispatcher
	Tracker      *syncstate.Tracker
	Log          logger.Logger
	SemaphoreCap int
	Cooldown     time.Duration
}

func NewEngine(cfg Config) *Engine {
	semaphoreCap := cfg.SemaphoreCap
	if semaphoreCap <= 0 {
		semaphoreCap = 4
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}

	return &Engine{
		pool:       cfg.Pool,
		mailboxes:  cfg.Mailboxes,
		envelopes:  cfg.Envelopes,
		eml:        cfg.EML,
		dispatcher: cfg.Dispatcher,
		tracker:    cfg.Tracker,
		log:        cfg.Log,
		semaphore:  make(chan struct{}, semaphoreCap),
		cooldown:   cooldown,
	}
}

// acquire blocks until a semaphore slot is free or ctx is cancelled.
func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	<-e.semaphore
}

func (e *Engine) reportError(accountID string, err error) {
	e.log.Errorf("account %s: %v", accountID, err)
	if e.dispatcher != nil {
		e.dispatcher.Dispatch(interfaces.StatusEvent{AccountID: accountID, Message: err.Error()})
	}
}

func (e *Engine) leaseSession(ctx context.Context, accountID string) (interfaces.Session, error) {
	sess, err := e.pool.Lease(ctx, accountID)
	if err != nil {
		wrapped := errors.Wrap(errors.ImapCommandFailed, "failed to lease imap session", err)
		e.reportError(accountID, wrapped)
		return nil, wrapped
	}
	return sess, nil
}
