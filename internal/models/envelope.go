package models

import (
	"github.com/lib/pq"
)

// Envelope is the normalised, indexable summary of one message. Its id is
// content-derived from (account_id, message_id): the same message fetched
// twice yields the same id, making index writes idempotent upserts.
type Envelope struct {
	ID            string         `json:"id"`
	MessageID     string         `json:"messageId"`
	AccountID     string         `json:"accountId"`
	MailboxID     string         `json:"mailboxId"`
	UID           uint32         `json:"uid"`
	Subject       string         `json:"subject"`
	Text          string         `json:"text"`
	From          string         `json:"from"`
	To            pq.StringArray `json:"to"`
	Cc            pq.StringArray `json:"cc"`
	Bcc           pq.StringArray `json:"bcc"`
	Date          int64          `json:"date"`
	InternalDate  int64          `json:"internalDate"`
	Size          uint32         `json:"size"`
	ThreadID      uint64         `json:"threadId"`
	Attachments   pq.StringArray `json:"attachments"`
	HasAttachment bool           `json:"hasAttachment"`
	Tags          pq.StringArray `json:"tags,omitempty"`
}

// EnvelopeRow is the gorm-backed persistence shape for the default
// Postgres envelope index (internal/index). Kept distinct from Envelope so
// the extractor (C2) and the fetch flow (C6) never depend on gorm.
type EnvelopeRow struct {
	ID            string         `gorm:"column:id;type:varchar(32);primaryKey"`
	MessageID     string         `gorm:"column:message_id;type:varchar(998);index"`
	AccountID     string         `gorm:"column:account_id;type:varchar(50);index;not null"`
	MailboxID     string         `gorm:"column:mailbox_id;type:varchar(32);index;not null"`
	UID           uint32         `gorm:"column:uid;index"`
	Subject       string         `gorm:"column:subject;type:varchar(1000)"`
	Text          string         `gorm:"column:text;type:text"`
	FromAddress   string         `gorm:"column:from_address;type:varchar(320);index"`
	To            pq.StringArray `gorm:"column:to_addresses;type:text[]"`
	Cc            pq.StringArray `gorm:"column:cc_addresses;type:text[]"`
	Bcc           pq.StringArray `gorm:"column:bcc_addresses;type:text[]"`
	Date          int64          `gorm:"column:date_ms"`
	InternalDate  int64          `gorm:"column:internal_date_ms"`
	Size          uint32         `gorm:"column:size_bytes"`
	ThreadID      uint64         `gorm:"column:thread_id;index"`
	Attachments   pq.StringArray `gorm:"column:attachments;type:text[]"`
	HasAttachment bool           `gorm:"column:has_attachment;index"`
	Tags          pq.StringArray `gorm:"column:tags;type:text[]"`
}

func (EnvelopeRow) TableName() string {
	return "envelopes"
}

func EnvelopeToRow(e *Envelope) *EnvelopeRow {
	return &EnvelopeRow{
		ID:            e.ID,
		MessageID:     e.MessageID,
		AccountID:     e.AccountID,
		MailboxID:     e.MailboxID,
		UID:           e.UID,
		Subject:       e.Subject,
		Text:          e.Text,
		FromAddress:   e.From,
		To:            e.To,
		Cc:            e.Cc,
		Bcc:           e.Bcc,
		Date:          e.Date,
		InternalDate:  e.InternalDate,
		Size:          e.Size,
		ThreadID:      e.ThreadID,
		Attachments:   e.Attachments,
		HasAttachment: len(e.Attachments) > 0,
		Tags:          e.Tags,
	}
}
