package models

import (
	"github.com/customeros/mailsherpa/mailvalidate"

	"github.com/bichon-mail/bichon/internal/crypto"
	"github.com/bichon-mail/bichon/internal/enum"
	"github.com/bichon-mail/bichon/internal/errors"
)

// Validate checks the invariants the spec places on an account row:
// date_since/date_before are mutually exclusive, an IMAP account requires
// imap config and a sync interval, the email address is syntactically
// valid and not a role/system account, and an optional PGP public key is
// well formed. Run from the gorm BeforeCreate/BeforeUpdate hooks below.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.Raise(errors.InvalidParameter, "email is required")
	}

	syntax := mailvalidate.ValidateEmailSyntax(a.Email)
	if !syntax.IsValid {
		return errors.Raise(errors.InvalidParameter, "email address is not valid")
	}
	if syntax.IsRoleAccount {
		return errors.Raise(errors.InvalidParameter, "email user cannot be a role account")
	}
	if syntax.IsSystemGenerated {
		return errors.Raise(errors.InvalidParameter, "email user appears system generated")
	}

	if a.DateSince != nil && a.DateBefore != nil {
		return errors.Raise(errors.InvalidParameter, "date_since and date_before are mutually exclusive")
	}

	if a.AccountType == enum.AccountTypeIMAP {
		if a.ImapConfig.Host == "" {
			return errors.Raise(errors.InvalidParameter, "imap host is required for an IMAP account")
		}
		if a.SyncIntervalMin == nil || *a.SyncIntervalMin <= 0 {
			return errors.Raise(errors.InvalidParameter, "sync_interval_min is required for an IMAP account")
		}
	}

	return crypto.ValidatePGPPublicKey(a.PGPPublicKey)
}
