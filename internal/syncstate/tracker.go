// Package syncstate implements the Running-State Tracker (C5): an
// in-memory, per-account view of sync progress used by the orchestrator
// to decide whether a run is due and by any status consumer to report
// what a sync is currently doing.
package syncstate

import (
	"sync"
	"time"

	"github.com/bichon-mail/bichon/internal/models"
)

type entry struct {
	mu    sync.Mutex
	state *models.AccountRunningState
}

// Tracker holds one entry per account. Cross-account operations never
// contend: each account's mutex is independent, and the map itself uses
// sync.Map so adding new accounts doesn't block readers of existing ones.
type Tracker struct {
	accounts sync.Map // accountID -> *entry
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) entryFor(accountID string) *entry {
	if v, ok := t.accounts.Load(accountID); ok {
		return v.(*entry)
	}
	e := &entry{state: models.NewAccountRunningState(accountID)}
	actual, _ := t.accounts.LoadOrStore(accountID, e)
	return actual.(*entry)
}

// Add registers an account if absent. Idempotent.
func (t *Tracker) Add(accountID string) {
	t.entryFor(accountID)
}

// Get returns a snapshot safe for the caller to read without holding any
// lock. Returns nil if the account was never tracked.
func (t *Tracker) Get(accountID string) *models.AccountRunningState {
	v, ok := t.accounts.Load(accountID)
	if !ok {
		return nil
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (t *Tracker) mutate(accountID string, fn func(s *models.AccountRunningState)) {
	e := t.entryFor(accountID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}

func (t *Tracker) SetInitialSyncCompleted(accountID string, at time.Time) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		s.IsInitialSyncCompleted = true
		s.InitialSyncEndTime = &at
		s.InitialSyncFailedTime = nil
	})
}

func (t *Tracker) SetInitialSyncFailed(accountID string, at time.Time) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		s.InitialSyncFailedTime = &at
	})
}

func (t *Tracker) SetIncrementalSyncStart(accountID string, at time.Time) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		s.IncrementalSyncStartTime = &at
		s.IncrementalSyncEndTime = nil
	})
}

func (t *Tracker) SetIncrementalSyncEnd(accountID string, at time.Time) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		s.IncrementalSyncEndTime = &at
	})
}

func (t *Tracker) SetInitialCurrentSyncingFolder(accountID, folder string, totalBatches int) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		s.CurrentSyncingFolder = folder
		s.CurrentFolderTotalBatches = totalBatches
		s.CurrentFolderBatchIndex = 0
	})
}

func (t *Tracker) SetCurrentSyncBatchNumber(accountID string, idx int) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		s.CurrentFolderBatchIndex = idx
	})
}

func (t *Tracker) SetFolderInitialSyncCompleted(accountID, folder string) {
	t.mutate(accountID, func(s *models.AccountRunningState) {
		if s.FolderInitialSyncCompleted == nil {
			s.FolderInitialSyncCompleted = make(map[string]bool)
		}
		s.FolderInitialSyncCompleted[folder] = true
	})
}

// Due reports whether enough time has passed since the last completed or
// failed attempt for this account to run again, per the 60s cooldown in
// the sync orchestrator (C8).
func (t *Tracker) Due(accountID string, now time.Time, cooldown time.Duration) bool {
	state := t.Get(accountID)
	if state == nil {
		return true
	}
	return !state.WithinCooldown(now, cooldown)
}
