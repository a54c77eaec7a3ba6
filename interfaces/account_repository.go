package interfaces

import (
	"context"

	"github.com/bichon-mail/bichon/internal/models"
)

// AccountRepository persists Account rows. The sync engine itself is
// read-mostly against this interface; account CRUD is otherwise out of
// the core's scope (the dashboard/API surface owns account creation).
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	ListEnabled(ctx context.Context) ([]*models.Account, error)
	UpdateCapabilities(ctx context.Context, accountID string, capabilities []string) error
}
