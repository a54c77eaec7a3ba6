package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bichon-mail/bichon/interfaces"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
)

type mailboxRepository struct {
	db *gorm.DB
}

func NewMailboxRepository(db *gorm.DB) interfaces.MailboxRepository {
	return &mailboxRepository{db: db}
}

func (r *mailboxRepository) ListAll(ctx context.Context, accountID string) ([]*models.Mailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.ListAll")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("account.id", accountID)

	var mailboxes []*models.Mailbox
	if err := r.db.Where("account_id = ?", accountID).Find(&mailboxes).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return mailboxes, nil
}

func (r *mailboxRepository) BatchInsert(ctx context.Context, mailboxes []*models.Mailbox) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.BatchInsert")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("mailbox.count", len(mailboxes))

	if len(mailboxes) == 0 {
		return nil
	}

	if err := r.db.Create(&mailboxes).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// BatchUpsert writes the batch in a single transaction, per the directory's
// ownership contract: a folder's row only advances after every batch for
// that run has succeeded, so a mid-run failure never commits a partial
// UIDVALIDITY advance.
func (r *mailboxRepository) BatchUpsert(ctx context.Context, mailboxes []*models.Mailbox) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.BatchUpsert")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("mailbox.count", len(mailboxes))

	if len(mailboxes) == 0 {
		return nil
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "encoded_name", "attributes", "exists_count", "unseen",
			"uid_next", "uid_validity", "updated_at",
		}),
	}).Create(&mailboxes).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
