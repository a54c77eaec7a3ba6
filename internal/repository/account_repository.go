package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/bichon-mail/bichon/interfaces"
	goerrors "github.com/bichon-mail/bichon/internal/errors"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) interfaces.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("account.id", id)

	var account models.Account
	if err := r.db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = goerrors.Raise(goerrors.ResourceNotFound, "account not found")
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ListEnabled(ctx context.Context) ([]*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.ListEnabled")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var accounts []*models.Account
	if err := r.db.Where("account_type = ?", "IMAP").Find(&accounts).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) UpdateCapabilities(ctx context.Context, accountID string, capabilities []string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.UpdateCapabilities")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag("account.id", accountID)

	err := r.db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("imap_capabilities", capabilities).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
