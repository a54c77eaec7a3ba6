// Package envelope implements the Envelope Extractor (C2): turning either
// a fetched IMAP message or a raw .eml byte stream into the normalised
// Envelope record the index layer persists.
package envelope

import (
	"bytes"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/utils"
)

// FetchedMessage is the subset of an IMAP FETCH response the extractor
// needs: the full RFC 822 body plus the fields only the wire protocol
// carries (uid, size, internal date).
type FetchedMessage struct {
	UID          uint32
	InternalDate time.Time
	Size         uint32
	Body         []byte
}

// ExtractFromFetch builds an Envelope from a FETCH response, per spec
// section 4.2.
func ExtractFromFetch(accountID, mailboxID string, msg FetchedMessage) (*models.Envelope, error) {
	env, err := extractCommon(msg.Body, accountID, mailboxID)
	if err != nil {
		return nil, err
	}
	env.UID = msg.UID
	env.Size = msg.Size
	if msg.Size == 0 {
		env.Size = uint32(len(msg.Body))
	}
	env.InternalDate = msg.InternalDate.UnixMilli()
	return env, nil
}

// ExtractFromEML builds an Envelope from a raw .eml byte stream: uid is
// always 0, size is the body length, and internal_date mirrors the
// message's own Date header.
func ExtractFromEML(accountID, mailboxID string, body []byte) (*models.Envelope, error) {
	env, err := extractCommon(body, accountID, mailboxID)
	if err != nil {
		return nil, err
	}
	env.UID = 0
	env.Size = uint32(len(body))
	env.InternalDate = env.Date
	return env, nil
}

func extractCommon(body []byte, accountID, mailboxID string) (*models.Envelope, error) {
	msg, err := enmime.ReadEnvelope(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to parse message", err)
	}

	messageID := msg.GetHeader("Message-Id")
	if messageID == "" {
		messageID = generateMessageID()
	} else {
		messageID = "<" + utils.NormalizeMessageID(messageID) + ">"
	}

	inReplyTo := msg.GetHeader("In-Reply-To")
	references := extractReferences(msg.GetHeader("References"))
	threadID := computeThreadID(inReplyTo, references, messageID)

	subject := msg.GetHeader("Subject")
	if strings.ContainsRune(subject, '�') {
		subject = normalizeSubject(msg.Root.Header.Get("Subject"))
	}

	text := msg.Text
	if text == "" && msg.HTML != "" {
		rendered, err := renderPlainText(msg.HTML)
		if err != nil {
			return nil, errors.Wrap(errors.InternalError, "failed to render html body", err)
		}
		text = rendered
	}

	from := addrSpecOf(msg, "From")
	if from == "" {
		from = "unknown"
	}

	var attachments []string
	for _, att := range msg.Attachments {
		if att.FileName != "" {
			attachments = append(attachments, att.FileName)
		}
	}

	dateMs := int64(0)
	if date, err := mail.ParseDate(msg.GetHeader("Date")); err == nil {
		dateMs = date.UnixMilli()
	}

	envelope := &models.Envelope{
		ID:          utils.StableHashHex(accountID, messageID),
		MessageID:   messageID,
		AccountID:   accountID,
		MailboxID:   mailboxID,
		Subject:     subject,
		Text:        text,
		From:        from,
		To:          addrSpecsOf(msg, "To"),
		Cc:          addrSpecsOf(msg, "Cc"),
		Bcc:         addrSpecsOf(msg, "Bcc"),
		Date:        dateMs,
		ThreadID:    threadID,
		Attachments: attachments,
	}

	return envelope, nil
}

func extractReferences(raw string) []string {
	fields := strings.Fields(raw)
	return fields
}
