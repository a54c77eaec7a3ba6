package enum

// AccountType distinguishes accounts that run the IMAP sync engine from
// accounts that exist only as a directory entry (no polling).
type AccountType string

const (
	AccountTypeIMAP    AccountType = "IMAP"
	AccountTypeNoSync  AccountType = "NoSync"
)

func (t AccountType) String() string { return string(t) }

// AuthType selects the authentication scheme C3 uses to log into the
// remote IMAP server.
type AuthType string

const (
	AuthTypePassword AuthType = "password"
	AuthTypeOAuth2   AuthType = "oauth2"
)

func (t AuthType) String() string { return string(t) }

// Encryption selects the transport security C3 dials with.
type Encryption string

const (
	EncryptionNone     Encryption = "none"
	EncryptionSSL      Encryption = "ssl"
	EncryptionStartTLS Encryption = "starttls"
)

func (t Encryption) String() string { return string(t) }

// FetchDirection controls which end of a folder-limit-clipped UID set is
// retained, and whether a date search runs SINCE or BEFORE.
type FetchDirection string

const (
	// DirectionSince means "newest first" - retain the highest UIDs.
	DirectionSince FetchDirection = "since"
	// DirectionBefore means "oldest first" - retain the lowest UIDs.
	DirectionBefore FetchDirection = "before"
)

func (t FetchDirection) String() string { return string(t) }

// SyncType is the mode the orchestrator (C8) picks for a given run.
type SyncType string

const (
	SyncTypeSkip        SyncType = "skip"
	SyncTypeInitialSync SyncType = "initial"
	SyncTypeIncremental SyncType = "incremental"
	SyncTypeRebuild     SyncType = "rebuild"
)

func (t SyncType) String() string { return string(t) }

// MailboxAttribute mirrors the subset of IMAP LIST attributes the
// directory cares about.
type MailboxAttribute string

const (
	AttrNoSelect   MailboxAttribute = "\\Noselect"
	AttrNoInferior MailboxAttribute = "\\Noinferiors"
	AttrHasChildren MailboxAttribute = "\\HasChildren"
	AttrHasNoChildren MailboxAttribute = "\\HasNoChildren"
)

func (t MailboxAttribute) String() string { return string(t) }
