package cron

import (
	"context"
	"os"
	"testing"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"

	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/syncstate"
	syncengine "github.com/bichon-mail/bichon/services/sync"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

type fakeAccountRepo struct {
	accounts []*models.Account
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ListEnabled(ctx context.Context) ([]*models.Account, error) {
	return r.accounts, nil
}

func (r *fakeAccountRepo) UpdateCapabilities(ctx context.Context, accountID string, capabilities []string) error {
	return nil
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewAppLogger(&logger.Config{DevMode: true})
	require.NoError(t, err)
	return log
}

func newTestCronManager(t *testing.T, accounts *fakeAccountRepo) *CronManager {
	engine := syncengine.NewEngine(syncengine.Config{
		Tracker: syncstate.NewTracker(),
		Log:     testLogger(t),
	})
	return NewCronManager(testLogger(t), &mockKubernetesInterface{}, accounts, engine)
}

func TestNewCronManager(t *testing.T) {
	cm := newTestCronManager(t, &fakeAccountRepo{})

	assert.NotNil(t, cm)
	assert.NotNil(t, cm.jobIDs)
	assert.NotNil(t, cm.lastRun)
}

func TestCronManager_StartCron(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_SYNC", "0 * * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_SYNC")

	cm := newTestCronManager(t, &fakeAccountRepo{})
	cm.StartCron()
	defer cm.cron.Stop()

	assert.NotNil(t, cm.cron)
	assert.Contains(t, cm.jobIDs, "sync_sweep")
}

func TestCronManager_Stop(t *testing.T) {
	cm := newTestCronManager(t, &fakeAccountRepo{})

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	cm.Stop()

	select {
	case <-cm.stopCh:
	default:
		t.Error("Stop channel was not closed")
	}
}

func TestCronManager_Due(t *testing.T) {
	cm := newTestCronManager(t, &fakeAccountRepo{})

	now := time.Now()
	assert.True(t, cm.due("acct_1", now, time.Minute))

	cm.markRun("acct_1", now)
	assert.False(t, cm.due("acct_1", now, time.Minute))
	assert.True(t, cm.due("acct_1", now.Add(2*time.Minute), time.Minute))
}
