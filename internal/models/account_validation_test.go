package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bichon-mail/bichon/internal/enum"
)

func validAccount() *Account {
	interval := 5
	return &Account{
		Email:       "alice@example.com",
		AccountType: enum.AccountTypeIMAP,
		ImapConfig: ImapConfig{
			Host: "imap.example.com",
			Port: 993,
		},
		SyncIntervalMin: &interval,
	}
}

func TestAccount_Validate_AcceptsWellFormedAccount(t *testing.T) {
	assert.NoError(t, validAccount().Validate())
}

func TestAccount_Validate_RejectsDateSinceAndDateBeforeTogether(t *testing.T) {
	a := validAccount()
	since := time.Now().Add(-24 * time.Hour)
	before := time.Now()
	a.DateSince = &since
	a.DateBefore = &before

	err := a.Validate()
	assert.Error(t, err)
}

func TestAccount_Validate_RequiresImapHostForImapAccount(t *testing.T) {
	a := validAccount()
	a.ImapConfig.Host = ""

	err := a.Validate()
	assert.Error(t, err)
}

func TestAccount_Validate_RequiresSyncIntervalForImapAccount(t *testing.T) {
	a := validAccount()
	a.SyncIntervalMin = nil

	err := a.Validate()
	assert.Error(t, err)
}

func TestAccount_Validate_RejectsMalformedEmail(t *testing.T) {
	a := validAccount()
	a.Email = "not-an-email"

	err := a.Validate()
	assert.Error(t, err)
}

func TestAccount_Validate_RejectsMalformedPGPKey(t *testing.T) {
	a := validAccount()
	a.PGPPublicKey = "not a real armored key"

	err := a.Validate()
	assert.Error(t, err)
}

func TestAccount_Validate_NoSyncAccountSkipsImapRequirements(t *testing.T) {
	a := &Account{
		Email:       "bob@example.com",
		AccountType: enum.AccountTypeNoSync,
	}

	assert.NoError(t, a.Validate())
}
