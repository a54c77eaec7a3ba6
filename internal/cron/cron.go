// Package cron drives the sync orchestrator on a schedule, outside the
// core engine itself (spec section 6): each enabled IMAP account is run
// again once its sync_interval_min, counted in minutes, has elapsed. It
// reuses the teacher's leader-election pattern so only
// one replica runs the sweep in a multi-pod deployment.
package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	cron_config "github.com/bichon-mail/bichon/internal/cron/config"
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/models"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/interfaces"
	syncengine "github.com/bichon-mail/bichon/services/sync"
)

const (
	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// CronManager sweeps enabled accounts on a schedule and hands each one
// that is due to the sync engine. One sweep tick never blocks on another
// account's sync: each due account runs in its own goroutine, bounded by
// the engine's own semaphore.
type CronManager struct {
	log      logger.Logger
	cron     *cronv3.Cron
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	jobIDs   map[string]cronv3.EntryID
	accounts interfaces.AccountRepository
	engine   *syncengine.Engine

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewCronManager(log logger.Logger, k8s kubernetes.Interface, accounts interfaces.AccountRepository, engine *syncengine.Engine) *CronManager {
	return &CronManager{
		log:      log,
		k8s:      k8s,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
		accounts: accounts,
		engine:   engine,
		lastRun:  make(map[string]time.Time),
	}
}

// Start initializes and starts the cron manager with leader election.
// If k8s is nil, it runs in local mode without leader election.
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "bichon-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping sync sweep")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		le.Run(context.Background())
	}()

	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
	}

	if cronConfig.CronScheduleSync != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSync, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.sweep()
		})
		if err != nil {
			cm.log.Fatalf("Could not add sync sweep cron job: %v", err)
		}
		cm.jobIDs["sync_sweep"] = id
		cm.log.Infof("Registered sync sweep with schedule: %s", cronConfig.CronScheduleSync)
	}
}

// StartCron initializes and starts the cron scheduler.
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// sweep lists enabled IMAP accounts and runs the orchestrator for any
// whose sync_interval_min has elapsed since its last invocation.
func (cm *CronManager) sweep() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.sweep")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	accounts, err := cm.accounts.ListEnabled(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("failed to list enabled accounts: %v", err)
		return
	}

	now := time.Now()
	for _, account := range accounts {
		if !cm.due(account.ID, now, account.EffectiveSyncInterval()) {
			continue
		}
		cm.markRun(account.ID, now)

		go func(account *models.Account) {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			if err := cm.engine.Run(context.Background(), account); err != nil {
				cm.log.Errorf("sync run failed for account %s: %v", account.ID, err)
			}
		}(account)
	}
}

func (cm *CronManager) due(accountID string, now time.Time, interval time.Duration) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	last, ok := cm.lastRun[accountID]
	return !ok || now.Sub(last) >= interval
}

func (cm *CronManager) markRun(accountID string, at time.Time) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastRun[accountID] = at
}
