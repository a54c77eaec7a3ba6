package imap

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/opentracing/opentracing-go"

	"github.com/bichon-mail/bichon/internal/crypto"
	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/interfaces"
)

// poolCap is the maximum number of live connections held per account,
// per spec section 4.3.
const poolCap = 10

const connectTimeout = 30 * time.Second

// pool is a bounded, lazily-filled session pool keyed by account. A
// channel of idle sessions doubles as the semaphore: leasing blocks when
// poolCap sessions are already checked out.
type pool struct {
	mu       sync.Mutex
	idle     map[string]chan interfaces.Session
	inFlight map[string]int

	accounts interfaces.AccountRepository
	cipher   *crypto.CredentialCipher
	log      logger.Logger
}

func NewPool(accounts interfaces.AccountRepository, cipher *crypto.CredentialCipher, log logger.Logger) interfaces.SessionPool {
	return &pool{
		idle:     make(map[string]chan interfaces.Session),
		inFlight: make(map[string]int),
		accounts: accounts,
		cipher:   cipher,
		log:      log,
	}
}

func (p *pool) channelFor(accountID string) chan interfaces.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.idle[accountID]
	if !ok {
		ch = make(chan interfaces.Session, poolCap)
		p.idle[accountID] = ch
	}
	return ch
}

// Lease returns a validated session, blocking if the pool is saturated.
// Checked-out connections are validated with NOOP and retried once on
// failure, per spec section 4.3.
func (p *pool) Lease(ctx context.Context, accountID string) (interfaces.Session, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imap.pool.Lease")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", accountID)

	ch := p.channelFor(accountID)

	select {
	case sess := <-ch:
		if sess.Noop(ctx) == nil {
			p.mu.Lock()
			p.inFlight[accountID]++
			p.mu.Unlock()
			return sess, nil
		}
		p.log.Warnf("pooled session for account %s failed NOOP, reconnecting", accountID)
		sess.Close()
	default:
	}

	if p.reserveSlot(accountID) {
		sess, err := p.dial(ctx, accountID)
		if err != nil {
			p.releaseSlot(accountID)
			tracing.TraceErr(span, err)
			return nil, err
		}
		return sess, nil
	}

	// Pool saturated: block on an idle connection or a context cancellation.
	select {
	case sess := <-ch:
		p.mu.Lock()
		p.inFlight[accountID]++
		p.mu.Unlock()
		if sess.Noop(ctx) == nil {
			return sess, nil
		}
		sess.Close()
		fresh, err := p.dial(ctx, accountID)
		if err != nil {
			p.releaseSlot(accountID)
			return nil, err
		}
		return fresh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pool) reserveSlot(accountID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[accountID] >= poolCap {
		return false
	}
	p.inFlight[accountID]++
	return true
}

func (p *pool) releaseSlot(accountID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[accountID] > 0 {
		p.inFlight[accountID]--
	}
}

func (p *pool) dial(ctx context.Context, accountID string) (interfaces.Session, error) {
	account, err := p.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	b := &backoff.Backoff{Min: 500 * time.Millisecond, Max: 2 * time.Second, Factor: 2, Jitter: true}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		sess, err := Connect(connectCtx, account, p.cipher)
		if err == nil {
			if caps, capErr := sess.Capabilities(connectCtx); capErr == nil {
				if upErr := p.accounts.UpdateCapabilities(ctx, accountID, caps); upErr != nil {
					p.log.Warnf("failed to persist capabilities for account %s: %v", accountID, upErr)
				}
			}
			return sess, nil
		}
		lastErr = err
		if attempt == 0 {
			time.Sleep(b.Duration())
		}
	}
	return nil, errors.Wrap(errors.ImapCommandFailed, "failed to establish imap session after retry", lastErr)
}

// Release returns a session to its account's idle pool, or closes it if
// the pool is already full (should not happen under correct accounting,
// kept defensive).
func (p *pool) Release(accountID string, sess interfaces.Session) {
	ch := p.channelFor(accountID)
	select {
	case ch <- sess:
	default:
		sess.Close()
	}
	p.releaseSlot(accountID)
}
