package index

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bichon-mail/bichon/interfaces"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
)

// gormEnvelopeIndex is the concrete default envelope sink: a Postgres
// table, upserted on the content-derived id so re-indexing the same
// message is a no-op.
type gormEnvelopeIndex struct {
	db *gorm.DB
}

func NewGormEnvelopeIndex(db *gorm.DB) interfaces.EnvelopeIndex {
	return &gormEnvelopeIndex{db: db}
}

func (idx *gormEnvelopeIndex) DeleteMailboxEnvelopes(ctx context.Context, accountID, mailboxID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gormEnvelopeIndex.DeleteMailboxEnvelopes")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("account.id", accountID)
	span.SetTag("mailbox.id", mailboxID)

	err := idx.db.Where("account_id = ? AND mailbox_id = ?", accountID, mailboxID).
		Delete(&models.EnvelopeRow{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (idx *gormEnvelopeIndex) GetMaxUID(ctx context.Context, accountID, mailboxID string) (*uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gormEnvelopeIndex.GetMaxUID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("account.id", accountID)
	span.SetTag("mailbox.id", mailboxID)

	var maxUID *uint32
	err := idx.db.Model(&models.EnvelopeRow{}).
		Where("account_id = ? AND mailbox_id = ?", accountID, mailboxID).
		Select("MAX(uid)").
		Scan(&maxUID).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return maxUID, nil
}

func (idx *gormEnvelopeIndex) BulkInsert(ctx context.Context, envelopes []*models.Envelope) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gormEnvelopeIndex.BulkInsert")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("envelope.count", len(envelopes))

	if len(envelopes) == 0 {
		return nil
	}

	rows := make([]*models.EnvelopeRow, 0, len(envelopes))
	for _, e := range envelopes {
		rows = append(rows, models.EnvelopeToRow(e))
	}

	err := idx.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"message_id", "uid", "subject", "text", "from_address", "to_addresses",
			"cc_addresses", "bcc_addresses", "date_ms", "internal_date_ms",
			"size_bytes", "thread_id", "attachments", "has_attachment", "tags",
		}),
	}).Create(&rows).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
