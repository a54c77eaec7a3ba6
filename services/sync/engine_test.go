package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/syncstate"
	"github.com/bichon-mail/bichon/interfaces"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewAppLogger(&logger.Config{DevMode: true})
	require.NoError(t, err)
	return log
}

// fakeSession is a minimal interfaces.Session stub: each method returns
// whatever the test pre-loaded onto the matching field.
type fakeSession struct {
	examineFn    func(encodedName string) (*interfaces.MailboxSummary, error)
	searchSince  []uint32
	searchBefore []uint32
	batches      map[string][]interfaces.RawMessage // uidExpr -> messages
	pages        []interfaces.RawMessage
	newMail      []interfaces.RawMessage
}

func (f *fakeSession) ListAllMailboxes(ctx context.Context) ([]interfaces.MailboxSummary, error) {
	return nil, nil
}

func (f *fakeSession) ExamineMailbox(ctx context.Context, encodedName string) (*interfaces.MailboxSummary, error) {
	if f.examineFn != nil {
		return f.examineFn(encodedName)
	}
	return &interfaces.MailboxSummary{Name: encodedName, EncodedName: encodedName}, nil
}

func (f *fakeSession) SelectMailbox(ctx context.Context, encodedName string) (*interfaces.MailboxSummary, error) {
	return f.ExamineMailbox(ctx, encodedName)
}

func (f *fakeSession) UIDSearchSince(ctx context.Context, encodedName string, since time.Time) ([]uint32, error) {
	return f.searchSince, nil
}

func (f *fakeSession) UIDSearchBefore(ctx context.Context, encodedName string, before time.Time) ([]uint32, error) {
	return f.searchBefore, nil
}

func (f *fakeSession) UIDBatchRetrieveEmails(ctx context.Context, encodedName, uidExpr string) ([]interfaces.RawMessage, error) {
	return f.batches[uidExpr], nil
}

func (f *fakeSession) BatchRetrieveEmails(ctx context.Context, encodedName string, page, pageSize int, desc bool) ([]interfaces.RawMessage, error) {
	start := (page - 1) * pageSize
	if start >= len(f.pages) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(f.pages) {
		end = len(f.pages)
	}
	return f.pages[start:end], nil
}

func (f *fakeSession) FetchNewMail(ctx context.Context, encodedName string, fromUID uint32, beforeDate *time.Time) ([]interfaces.RawMessage, error) {
	return f.newMail, nil
}

func (f *fakeSession) Noop(ctx context.Context) error                                  { return nil }
func (f *fakeSession) ID(ctx context.Context, pairs map[string]string) (map[string]string, error) { return nil, nil }
func (f *fakeSession) Capabilities(ctx context.Context) ([]string, error)               { return nil, nil }
func (f *fakeSession) Close() error                                                     { return nil }

// fakePool always hands back the same session regardless of account.
type fakePool struct {
	sess interfaces.Session
}

func (p *fakePool) Lease(ctx context.Context, accountID string) (interfaces.Session, error) {
	return p.sess, nil
}

func (p *fakePool) Release(accountID string, sess interfaces.Session) {}

// fakeMailboxRepo is an in-memory MailboxRepository.
type fakeMailboxRepo struct {
	rows []*models.Mailbox
}

func (r *fakeMailboxRepo) ListAll(ctx context.Context, accountID string) ([]*models.Mailbox, error) {
	return r.rows, nil
}

func (r *fakeMailboxRepo) BatchInsert(ctx context.Context, mailboxes []*models.Mailbox) error {
	r.rows = append(r.rows, mailboxes...)
	return nil
}

func (r *fakeMailboxRepo) BatchUpsert(ctx context.Context, mailboxes []*models.Mailbox) error {
	byID := make(map[string]*models.Mailbox, len(r.rows))
	for _, m := range r.rows {
		byID[m.ID] = m
	}
	for _, m := range mailboxes {
		byID[m.ID] = m
	}
	rows := make([]*models.Mailbox, 0, len(byID))
	for _, m := range byID {
		rows = append(rows, m)
	}
	r.rows = rows
	return nil
}

// fakeEnvelopeIndex is an in-memory EnvelopeIndex.
type fakeEnvelopeIndex struct {
	inserted []*models.Envelope
	purged   int
	maxUID   map[string]*uint32
}

func (idx *fakeEnvelopeIndex) DeleteMailboxEnvelopes(ctx context.Context, accountID, mailboxID string) error {
	idx.purged++
	return nil
}

func (idx *fakeEnvelopeIndex) GetMaxUID(ctx context.Context, accountID, mailboxID string) (*uint32, error) {
	if idx.maxUID == nil {
		return nil, nil
	}
	return idx.maxUID[mailboxID], nil
}

func (idx *fakeEnvelopeIndex) BulkInsert(ctx context.Context, envelopes []*models.Envelope) error {
	idx.inserted = append(idx.inserted, envelopes...)
	return nil
}

// fakeEMLIndex is an in-memory EMLIndex.
type fakeEMLIndex struct {
	put    int
	purged int
}

func (idx *fakeEMLIndex) DeleteMailboxMessages(ctx context.Context, accountID, mailboxID string) error {
	idx.purged++
	return nil
}

func (idx *fakeEMLIndex) PutMessage(ctx context.Context, accountID, mailboxID string, uid uint32, raw []byte) error {
	idx.put++
	return nil
}

// fakeDispatcher collects dispatched status events.
type fakeDispatcher struct {
	events []interfaces.StatusEvent
}

func (d *fakeDispatcher) Dispatch(event interfaces.StatusEvent) {
	d.events = append(d.events, event)
}

func rawMessage(uid uint32) interfaces.RawMessage {
	body := []byte("From: a@example.com\r\nTo: b@example.com\r\nSubject: s\r\nMessage-Id: <" +
		string(rune('0'+uid)) + "@x>\r\n\r\nbody\r\n")
	return interfaces.RawMessage{UID: uid, InternalDate: time.Now(), Size: uint32(len(body)), Body: body}
}

func newTestEngine(t *testing.T, sess interfaces.Session, mailboxes *fakeMailboxRepo, envelopes *fakeEnvelopeIndex, eml *fakeEMLIndex, dispatcher interfaces.StatusDispatcher) *Engine {
	return NewEngine(Config{
		Pool:         &fakePool{sess: sess},
		Mailboxes:    mailboxes,
		Envelopes:    envelopes,
		EML:          eml,
		Dispatcher:   dispatcher,
		Tracker:      syncstate.NewTracker(),
		Log:          testLogger(t),
		SemaphoreCap: 2,
		Cooldown:     60 * time.Second,
	})
}

func TestFetchFull_PaginatesAndPersists(t *testing.T) {
	sess := &fakeSession{pages: []interfaces.RawMessage{rawMessage(1), rawMessage(2), rawMessage(3)}}
	envelopes := &fakeEnvelopeIndex{}
	eng := newTestEngine(t, sess, &fakeMailboxRepo{}, envelopes, &fakeEMLIndex{}, nil)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP, SyncBatchSize: 2}
	eng.tracker.Add(account.ID)
	mbox := &models.Mailbox{ID: "mbox_1", Name: "INBOX", EncodedName: "INBOX"}

	n, err := eng.fetchFull(context.Background(), account, mbox, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, envelopes.inserted, 3)
}

func TestFetchFull_EmptyMailboxShortCircuits(t *testing.T) {
	sess := &fakeSession{}
	envelopes := &fakeEnvelopeIndex{}
	eng := newTestEngine(t, sess, &fakeMailboxRepo{}, envelopes, &fakeEMLIndex{}, nil)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	mbox := &models.Mailbox{ID: "mbox_1", Name: "INBOX", EncodedName: "INBOX"}

	n, err := eng.fetchFull(context.Background(), account, mbox, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, envelopes.inserted)
}

func TestIncremental_WithFreshCacheFetchesNewMailOnly(t *testing.T) {
	sess := &fakeSession{newMail: []interfaces.RawMessage{rawMessage(5)}}
	envelopes := &fakeEnvelopeIndex{}
	maxUID := uint32(1000)
	envelopes.maxUID = map[string]*uint32{"mbox_1": &maxUID}
	eng := newTestEngine(t, sess, &fakeMailboxRepo{}, envelopes, &fakeEMLIndex{}, nil)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	local := &models.Mailbox{ID: "mbox_1", Name: "INBOX", EncodedName: "INBOX"}
	remote := &models.Mailbox{ID: "mbox_1", Name: "INBOX", EncodedName: "INBOX", Exists: 1001}

	n, err := eng.incremental(context.Background(), account, local, remote)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIncremental_EmptyRemoteSkipsSearch(t *testing.T) {
	sess := &fakeSession{}
	envelopes := &fakeEnvelopeIndex{}
	eng := newTestEngine(t, sess, &fakeMailboxRepo{}, envelopes, &fakeEMLIndex{}, nil)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	local := &models.Mailbox{ID: "mbox_1", Name: "INBOX"}
	remote := &models.Mailbox{ID: "mbox_1", Name: "INBOX", Exists: 0}

	n, err := eng.incremental(context.Background(), account, local, remote)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReconcile_UnknownUidValiditySkipsFolderWithoutPurge(t *testing.T) {
	sess := &fakeSession{}
	envelopes := &fakeEnvelopeIndex{}
	mailboxes := &fakeMailboxRepo{}
	eng := newTestEngine(t, sess, mailboxes, envelopes, &fakeEMLIndex{}, nil)

	knownValidity := uint32(111)
	local := []*models.Mailbox{{ID: "mbox_1", Name: "INBOX", UidValidity: &knownValidity}}
	mailboxes.rows = local

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	remote := []*models.Mailbox{{ID: "mbox_1", Name: "INBOX", UidValidity: nil, Exists: 10}}

	err := eng.reconcile(context.Background(), account, remote)
	require.NoError(t, err)
	assert.Equal(t, 0, envelopes.purged)
	assert.Len(t, mailboxes.rows, 1)
}

func TestReconcile_UidValidityChangeRebuildsFolder(t *testing.T) {
	sess := &fakeSession{pages: []interfaces.RawMessage{rawMessage(1)}}
	envelopes := &fakeEnvelopeIndex{}
	eml := &fakeEMLIndex{}
	mailboxes := &fakeMailboxRepo{}
	eng := newTestEngine(t, sess, mailboxes, envelopes, eml, nil)

	oldValidity := uint32(111)
	newValidity := uint32(222)
	mailboxes.rows = []*models.Mailbox{{ID: "mbox_1", Name: "INBOX", UidValidity: &oldValidity}}

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	remote := []*models.Mailbox{{ID: "mbox_1", Name: "INBOX", UidValidity: &newValidity, Exists: 1}}

	err := eng.reconcile(context.Background(), account, remote)
	require.NoError(t, err)
	assert.Equal(t, 1, envelopes.purged)
	assert.Equal(t, 1, eml.purged)
	assert.Len(t, envelopes.inserted, 1)
}

func TestReconcile_MissingFoldersInsertedAndRebuilt(t *testing.T) {
	sess := &fakeSession{pages: []interfaces.RawMessage{rawMessage(1), rawMessage(2)}}
	envelopes := &fakeEnvelopeIndex{}
	mailboxes := &fakeMailboxRepo{}
	eng := newTestEngine(t, sess, mailboxes, envelopes, &fakeEMLIndex{}, nil)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	remote := []*models.Mailbox{{ID: "mbox_new", Name: "Archive", Exists: 2}}

	err := eng.reconcile(context.Background(), account, remote)
	require.NoError(t, err)
	assert.Len(t, mailboxes.rows, 1)
	assert.Len(t, envelopes.inserted, 2)
}

func TestRun_RejectsNonIMAPAccount(t *testing.T) {
	sess := &fakeSession{}
	eng := newTestEngine(t, sess, &fakeMailboxRepo{}, &fakeEnvelopeIndex{}, &fakeEMLIndex{}, nil)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeNoSync}
	err := eng.Run(context.Background(), account)
	assert.Error(t, err)
}

func TestRun_IncrementalSkippedDuringCooldown(t *testing.T) {
	sess := &fakeSession{}
	dispatcher := &fakeDispatcher{}
	eng := newTestEngine(t, sess, &fakeMailboxRepo{}, &fakeEnvelopeIndex{}, &fakeEMLIndex{}, dispatcher)

	account := &models.Account{ID: "acct_1", AccountType: enum.AccountTypeIMAP}
	eng.tracker.Add(account.ID)
	eng.tracker.SetInitialSyncCompleted(account.ID, time.Now())

	err := eng.Run(context.Background(), account)
	require.NoError(t, err)

	state := eng.tracker.Get(account.ID)
	assert.Nil(t, state.IncrementalSyncStartTime)
}
