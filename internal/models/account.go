package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/utils"
)

// ImapConfig holds the connection parameters for an IMAP account. Embedded
// as a struct rather than a join table: it has no independent lifecycle.
type ImapConfig struct {
	Host          string         `gorm:"column:imap_host;type:varchar(255)" json:"host"`
	Port          int            `gorm:"column:imap_port" json:"port"`
	Encryption    enum.Encryption `gorm:"column:imap_encryption;type:varchar(20)" json:"encryption"`
	AuthType      enum.AuthType  `gorm:"column:imap_auth_type;type:varchar(20)" json:"authType"`
	Username      string         `gorm:"column:imap_username;type:varchar(255)" json:"username"`
	PasswordEnc   string         `gorm:"column:imap_password_enc;type:text" json:"-"`
	OAuthAccessToken string      `gorm:"column:imap_oauth_access_token;type:text" json:"-"`
	Capabilities  pq.StringArray `gorm:"column:imap_capabilities;type:text[]" json:"capabilities"`
	UseProxyID    string         `gorm:"column:imap_use_proxy_id;type:varchar(50)" json:"useProxyId,omitempty"`
}

// Account is one mailbox the engine is responsible for synchronising.
type Account struct {
	ID              string        `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email           string        `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Name            string        `gorm:"column:name;type:varchar(255)" json:"name,omitempty"`
	AccountType     enum.AccountType `gorm:"column:account_type;type:varchar(20);not null" json:"accountType"`
	PGPPublicKey    string        `gorm:"column:pgp_public_key;type:text" json:"pgpPublicKey,omitempty"`

	ImapConfig `gorm:"embedded"`

	DateSince      *time.Time `gorm:"column:date_since;type:timestamp" json:"dateSince,omitempty"`
	DateBefore     *time.Time `gorm:"column:date_before;type:timestamp" json:"dateBefore,omitempty"`
	FolderLimit    *int       `gorm:"column:folder_limit" json:"folderLimit,omitempty"`
	SyncIntervalMin *int      `gorm:"column:sync_interval_min" json:"syncIntervalMin,omitempty"`
	SyncBatchSize  int        `gorm:"column:sync_batch_size;default:50" json:"syncBatchSize"`
	SyncFolders    pq.StringArray `gorm:"column:sync_folders;type:text[]" json:"syncFolders"`
	UseProxy       bool       `gorm:"column:use_proxy;default:false" json:"useProxy"`
	UseDangerous   bool       `gorm:"column:use_dangerous;default:false" json:"useDangerous"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("acct", 16)
	}
	return a.Validate()
}

func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	return a.Validate()
}

// DefaultSyncFolders is applied when an account has not subscribed to a
// specific folder list.
var DefaultSyncFolders = []string{"INBOX", "Sent"}

// EffectiveSyncFolders returns the account's subscribed folders, defaulting
// to INBOX and Sent per C8 step 2.
func (a *Account) EffectiveSyncFolders() []string {
	if len(a.SyncFolders) == 0 {
		return DefaultSyncFolders
	}
	return []string(a.SyncFolders)
}

// Direction derives the fetch direction (C1) from the account's date
// policy: a date_since bound means we care about newest-first growth from
// a known starting point, anything else defaults to oldest-first.
func (a *Account) Direction() enum.FetchDirection {
	if a.DateSince != nil {
		return enum.DirectionSince
	}
	return enum.DirectionBefore
}

// EffectiveFolderLimit clamps the configured folder limit to a minimum of
// 100, per the "folder limit" glossary entry. A nil limit means unbounded.
func (a *Account) EffectiveFolderLimit() *int {
	if a.FolderLimit == nil {
		return nil
	}
	l := *a.FolderLimit
	if l < 100 {
		l = 100
	}
	return &l
}

// EffectiveSyncBatchSize applies the documented default of 50.
func (a *Account) EffectiveSyncBatchSize() int {
	if a.SyncBatchSize <= 0 {
		return 50
	}
	return a.SyncBatchSize
}

// DefaultSyncIntervalMin is applied when an account has not configured
// its own poll interval.
const DefaultSyncIntervalMin = 5

// EffectiveSyncInterval returns how often the scheduler should invoke
// the orchestrator for this account.
func (a *Account) EffectiveSyncInterval() time.Duration {
	minutes := DefaultSyncIntervalMin
	if a.SyncIntervalMin != nil && *a.SyncIntervalMin > 0 {
		minutes = *a.SyncIntervalMin
	}
	return time.Duration(minutes) * time.Minute
}
