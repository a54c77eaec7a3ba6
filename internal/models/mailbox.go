package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/utils"
)

// NewMailboxID derives a stable, content-based mailbox id from the
// account it belongs to and its decoded name, so a folder keeps the same
// id across a full rebuild as long as its name is unchanged.
func NewMailboxID(accountID, name string) string {
	return utils.StableHashHex(accountID, name)
}

// Mailbox is a persisted IMAP folder record. Its id is content-derived
// (hash of account_id + name) rather than server-assigned, so a folder
// keeps the same id across rebuilds as long as it keeps the same name.
type Mailbox struct {
	ID           string                  `gorm:"column:id;type:varchar(32);primaryKey" json:"id"`
	AccountID    string                  `gorm:"column:account_id;type:varchar(50);index;not null" json:"accountId"`
	Name         string                  `gorm:"column:name;type:varchar(500);not null" json:"name"`
	EncodedName  string                  `gorm:"column:encoded_name;type:varchar(500);not null" json:"encodedName"`
	Attributes   pq.StringArray          `gorm:"column:attributes;type:text[]" json:"attributes"`
	Exists       uint32                  `gorm:"column:exists_count" json:"exists"`
	Unseen       uint32                  `gorm:"column:unseen" json:"unseen"`
	UidNext      uint32                  `gorm:"column:uid_next" json:"uidNext"`
	UidValidity  *uint32                 `gorm:"column:uid_validity" json:"uidValidity,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Mailbox) TableName() string {
	return "mailboxes"
}

// IsSelectable reports whether the folder can be synced. NoSelect folders
// (pure containers, e.g. the root of a Gmail label tree) are excluded.
func (m *Mailbox) IsSelectable() bool {
	for _, attr := range m.Attributes {
		if enum.MailboxAttribute(attr) == enum.AttrNoSelect {
			return false
		}
	}
	return true
}

// UidValidityKnown reports whether the remote reported a usable
// UIDVALIDITY. A missing value must never trigger a destructive rebuild.
func (m *Mailbox) UidValidityKnown() bool {
	return m.UidValidity != nil
}

// SameUidValidity compares two mailbox records' UIDVALIDITY. Two unknown
// values compare equal; an unknown value against a known one compares
// unequal, which is not safe to treat as a change - callers must check
// UidValidityKnown before rebuilding.
func SameUidValidity(local, remote *Mailbox) bool {
	if local.UidValidity == nil || remote.UidValidity == nil {
		return local.UidValidity == remote.UidValidity
	}
	return *local.UidValidity == *remote.UidValidity
}
