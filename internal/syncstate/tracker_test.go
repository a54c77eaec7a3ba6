package syncstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_AddAndGet(t *testing.T) {
	tr := NewTracker()

	assert.Nil(t, tr.Get("acct_1"))

	tr.Add("acct_1")
	state := tr.Get("acct_1")
	assert.NotNil(t, state)
	assert.Equal(t, "acct_1", state.AccountID)
	assert.False(t, state.IsInitialSyncCompleted)
}

func TestTracker_InitialSyncLifecycle(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.SetInitialSyncFailed("acct_1", now)
	state := tr.Get("acct_1")
	assert.NotNil(t, state.InitialSyncFailedTime)
	assert.False(t, state.IsInitialSyncCompleted)

	tr.SetInitialSyncCompleted("acct_1", now.Add(time.Minute))
	state = tr.Get("acct_1")
	assert.True(t, state.IsInitialSyncCompleted)
	assert.Nil(t, state.InitialSyncFailedTime)
	assert.NotNil(t, state.InitialSyncEndTime)
}

func TestTracker_FolderProgress(t *testing.T) {
	tr := NewTracker()

	tr.SetInitialCurrentSyncingFolder("acct_1", "INBOX", 4)
	tr.SetCurrentSyncBatchNumber("acct_1", 2)
	tr.SetFolderInitialSyncCompleted("acct_1", "INBOX")

	state := tr.Get("acct_1")
	assert.Equal(t, "INBOX", state.CurrentSyncingFolder)
	assert.Equal(t, 4, state.CurrentFolderTotalBatches)
	assert.Equal(t, 2, state.CurrentFolderBatchIndex)
	assert.True(t, state.FolderInitialSyncCompleted["INBOX"])
}

func TestTracker_Due(t *testing.T) {
	tr := NewTracker()

	assert.True(t, tr.Due("acct_1", time.Now(), time.Minute))

	now := time.Now()
	tr.SetInitialSyncCompleted("acct_1", now)

	assert.False(t, tr.Due("acct_1", now.Add(10*time.Second), time.Minute))
	assert.True(t, tr.Due("acct_1", now.Add(2*time.Minute), time.Minute))
}

func TestTracker_CloneIsolatesMap(t *testing.T) {
	tr := NewTracker()
	tr.SetFolderInitialSyncCompleted("acct_1", "INBOX")

	snapshot := tr.Get("acct_1")
	snapshot.FolderInitialSyncCompleted["Sent"] = true

	fresh := tr.Get("acct_1")
	assert.False(t, fresh.FolderInitialSyncCompleted["Sent"])
}
