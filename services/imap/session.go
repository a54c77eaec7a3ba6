package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/opentracing/opentracing-go"

	"github.com/bichon-mail/bichon/internal/crypto"
	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/interfaces"
)

const (
	dialTimeout  = 30 * time.Second
	clientIDName = "bichon"
	// the wire identity the original project shipped, kept so servers
	// that pattern-match on vendor strings keep behaving the same way.
	clientIDVendor  = "rustmailer"
	clientIDVersion = "1.0.0"
)

// imapSession is the concrete interfaces.Session backed by
// emersion/go-imap/client. One instance wraps exactly one authenticated
// connection; it is never shared across goroutines outside the pool.
type imapSession struct {
	accountID string
	client    *client.Client
	caps      map[string]bool
}

// Connect dials, authenticates and capability-negotiates a new session
// for account, per spec section 4.3. NoSync accounts never reach here -
// callers are expected to check AccountType first.
func Connect(ctx context.Context, account *models.Account, cipher *crypto.CredentialCipher) (interfaces.Session, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imap.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("account.id", account.ID)
	span.SetTag("imap.host", account.Host)
	span.SetTag("imap.port", account.Port)

	c, err := dial(account)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "failed to connect to imap server", err)
	}

	if err := authenticate(ctx, c, account, cipher); err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, err
	}

	caps, err := c.Capability()
	if err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "failed to fetch capabilities", err)
	}

	sess := &imapSession{accountID: account.ID, client: c, caps: caps}

	if caps["ID"] {
		if _, err := sess.ID(ctx, map[string]string{
			"name":    clientIDName,
			"version": clientIDVersion,
			"vendor":  clientIDVendor,
		}); err != nil {
			tracing.TraceErr(span, err)
		}
	}

	return sess, nil
}

func dial(account *models.Account) (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", account.Host, account.Port)
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}

	switch account.Encryption {
	case enum.EncryptionSSL:
		tlsCfg := &tls.Config{ServerName: account.Host, InsecureSkipVerify: account.UseDangerous}
		return client.DialWithDialerTLS(dialer, addr, tlsCfg)
	case enum.EncryptionStartTLS:
		c, err := client.DialWithDialer(dialer, addr)
		if err != nil {
			return nil, err
		}
		tlsCfg := &tls.Config{ServerName: account.Host, InsecureSkipVerify: account.UseDangerous}
		if err := c.StartTLS(tlsCfg); err != nil {
			c.Logout()
			return nil, err
		}
		return c, nil
	default:
		return client.DialWithDialer(dialer, addr)
	}
}

func authenticate(ctx context.Context, c *client.Client, account *models.Account, cipher *crypto.CredentialCipher) error {
	switch account.AuthType {
	case enum.AuthTypeOAuth2:
		if account.OAuthAccessToken == "" {
			return errors.Raise(errors.MissingConfiguration, "account has no oauth2 access token")
		}
		saslClient := sasl.NewXoauth2Client(account.Username, account.OAuthAccessToken)
		if err := c.Authenticate(saslClient); err != nil {
			return errors.Wrap(errors.ImapCommandFailed, "xoauth2 authentication failed", err)
		}
		return nil
	default:
		password, err := cipher.Decrypt(account.PasswordEnc)
		if err != nil {
			return err
		}
		if err := c.Login(account.Username, password); err != nil {
			return errors.Wrap(errors.ImapCommandFailed, "login failed", err)
		}
		return nil
	}
}

func (s *imapSession) Noop(ctx context.Context) error {
	return s.client.Noop()
}

func (s *imapSession) ID(ctx context.Context, pairs map[string]string) (map[string]string, error) {
	_, err := s.client.Execute(&idCommand{params: pairs}, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ImapCommandFailed, "ID command failed", err)
	}
	return nil, nil
}

func (s *imapSession) Capabilities(ctx context.Context) ([]string, error) {
	caps, err := s.client.Capability()
	if err != nil {
		return nil, errors.Wrap(errors.ImapCommandFailed, "CAPABILITY failed", err)
	}
	list := make([]string, 0, len(caps))
	for c := range caps {
		list = append(list, c)
	}
	return list, nil
}

func (s *imapSession) Close() error {
	return s.client.Logout()
}

func (s *imapSession) ListAllMailboxes(ctx context.Context) ([]interfaces.MailboxSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.ListAllMailboxes")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	mailboxes := make(chan *goimap.MailboxInfo, 16)
	done := make(chan error, 1)
	go func() { done <- s.client.List("", "*", mailboxes) }()

	var summaries []interfaces.MailboxSummary
	for m := range mailboxes {
		decoded, err := DecodeFolderName(m.Name)
		if err != nil {
			decoded = m.Name
		}
		attrs := make([]string, len(m.Attributes))
		for i, a := range m.Attributes {
			attrs[i] = a
		}
		summaries = append(summaries, interfaces.MailboxSummary{
			Name:        decoded,
			EncodedName: m.Name,
			Attributes:  attrs,
		})
	}

	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "LIST failed", err)
	}

	return summaries, nil
}

func (s *imapSession) ExamineMailbox(ctx context.Context, encodedName string) (*interfaces.MailboxSummary, error) {
	return s.selectOrExamine(ctx, encodedName, true)
}

func (s *imapSession) SelectMailbox(ctx context.Context, encodedName string) (*interfaces.MailboxSummary, error) {
	return s.selectOrExamine(ctx, encodedName, false)
}

func (s *imapSession) selectOrExamine(ctx context.Context, encodedName string, readOnly bool) (*interfaces.MailboxSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.selectOrExamine")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder.encoded_name", encodedName)
	span.SetTag("read_only", readOnly)

	mbox, err := s.client.Select(encodedName, readOnly)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "SELECT/EXAMINE failed", err)
	}

	decoded, err := DecodeFolderName(encodedName)
	if err != nil {
		decoded = encodedName
	}

	summary := &interfaces.MailboxSummary{
		Name:        decoded,
		EncodedName: encodedName,
		Exists:      mbox.Messages,
		Unseen:      mbox.Unseen,
		UidNext:     mbox.UidNext,
	}
	if mbox.UidValidity != 0 {
		v := mbox.UidValidity
		summary.UidValidity = &v
	}
	return summary, nil
}

func (s *imapSession) UIDSearchSince(ctx context.Context, encodedName string, since time.Time) ([]uint32, error) {
	return s.uidSearchByDate(ctx, encodedName, since, true)
}

func (s *imapSession) UIDSearchBefore(ctx context.Context, encodedName string, before time.Time) ([]uint32, error) {
	return s.uidSearchByDate(ctx, encodedName, before, false)
}

func (s *imapSession) uidSearchByDate(ctx context.Context, encodedName string, date time.Time, since bool) ([]uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.uidSearchByDate")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder.encoded_name", encodedName)
	span.SetTag("date", date.String())
	span.SetTag("since", since)

	if _, err := s.client.Select(encodedName, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "SELECT failed", err)
	}

	criteria := goimap.NewSearchCriteria()
	if since {
		criteria.Since = date
	} else {
		criteria.Before = date
	}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "UID SEARCH failed", err)
	}
	return uids, nil
}

func (s *imapSession) UIDBatchRetrieveEmails(ctx context.Context, encodedName, uidExpr string) ([]interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.UIDBatchRetrieveEmails")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder.encoded_name", encodedName)
	span.SetTag("uid_expr", uidExpr)

	if _, err := s.client.Select(encodedName, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "SELECT failed", err)
	}

	seqSet, err := goimap.ParseSeqSet(uidExpr)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.InvalidParameter, "malformed uid range expression", err)
	}

	return s.fetch(ctx, seqSet, true)
}

func (s *imapSession) BatchRetrieveEmails(ctx context.Context, encodedName string, page, pageSize int, desc bool) ([]interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.BatchRetrieveEmails")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder.encoded_name", encodedName)
	span.SetTag("page", page)
	span.SetTag("page_size", pageSize)
	span.SetTag("desc", desc)

	mbox, err := s.client.Select(encodedName, true)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "SELECT failed", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	seqNums := make([]uint32, mbox.Messages)
	for i := range seqNums {
		seqNums[i] = uint32(i + 1)
	}

	batches, err := Plan(seqNums, pageSize, desc)
	if err != nil {
		return nil, err
	}
	if page < 1 || page > len(batches) {
		return nil, nil
	}

	seqSet, err := goimap.ParseSeqSet(batches[page-1])
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.InternalError, "malformed page sequence expression", err)
	}

	return s.fetch(ctx, seqSet, false)
}

func (s *imapSession) FetchNewMail(ctx context.Context, encodedName string, fromUID uint32, beforeDate *time.Time) ([]interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.FetchNewMail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder.encoded_name", encodedName)
	span.SetTag("from_uid", fromUID)

	if _, err := s.client.Select(encodedName, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "SELECT failed", err)
	}

	uidRange := new(goimap.SeqSet)
	uidRange.AddRange(fromUID, 0)

	criteria := goimap.NewSearchCriteria()
	criteria.Uid = uidRange
	if beforeDate != nil {
		criteria.Before = *beforeDate
	}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "UID SEARCH failed", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(goimap.SeqSet)
	for _, uid := range uids {
		seqSet.AddNum(uid)
	}

	return s.fetch(ctx, seqSet, true)
}

func (s *imapSession) fetch(ctx context.Context, seqSet *goimap.SeqSet, isUID bool) ([]interfaces.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapSession.fetch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("is_uid", isUID)

	section := &goimap.BodySectionName{Peek: true}
	items := []goimap.FetchItem{goimap.FetchUid, goimap.FetchInternalDate, goimap.FetchRFC822Size, section.FetchItem()}

	messages := make(chan *goimap.Message, 16)
	done := make(chan error, 1)

	go func() {
		if isUID {
			done <- s.client.UidFetch(seqSet, items, messages)
		} else {
			done <- s.client.Fetch(seqSet, items, messages)
		}
	}()

	var raw []interfaces.RawMessage
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		content, err := io.ReadAll(body)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(errors.ImapCommandFailed, "failed to read message body", err)
		}
		raw = append(raw, interfaces.RawMessage{
			UID:          msg.Uid,
			InternalDate: msg.InternalDate,
			Size:         msg.Size,
			Body:         content,
		})
	}

	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(errors.ImapCommandFailed, "FETCH failed", err)
	}

	return raw, nil
}
