package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/bichon-mail/bichon/config"
	"github.com/bichon-mail/bichon/internal/crypto"
	"github.com/bichon-mail/bichon/internal/cron"
	"github.com/bichon-mail/bichon/internal/database"
	"github.com/bichon-mail/bichon/internal/dispatcher"
	"github.com/bichon-mail/bichon/internal/index"
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/repository"
	"github.com/bichon-mail/bichon/internal/syncstate"
	"github.com/bichon-mail/bichon/internal/tracing"
	"github.com/bichon-mail/bichon/interfaces"
	"github.com/bichon-mail/bichon/services/imap"
	"github.com/bichon-mail/bichon/services/storage"
	syncengine "github.com/bichon-mail/bichon/services/sync"
)

func main() {
	app := &cli.App{
		Name:  "bichon",
		Usage: "IMAP sync engine",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "run the sync scheduler in the foreground",
				Action: runSync,
			},
			{
				Name:   "migrate",
				Usage:  "run database migrations",
				Action: runMigrate,
			},
			{
				Name:   "status",
				Usage:  "print a snapshot of every account's mailboxes",
				Action: runStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, logger.Logger, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config init: %w", err)
	}

	log, err := logger.NewAppLogger(cfg.AppConfig.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("logger init: %w", err)
	}

	if _, _, err := tracing.NewJaegerTracer(cfg.AppConfig.Tracing, log); err != nil {
		log.Warnf("jaeger tracer disabled: %v", err)
	}

	return cfg, log, nil
}

func runMigrate(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	if _, err := database.InitDatabase(cfg.DatabaseConfig); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("database migration completed successfully")
	return nil
}

func runSync(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}

	cipher, err := crypto.LoadCredentialCipher()
	if err != nil {
		return fmt.Errorf("credential cipher init: %w", err)
	}

	accounts := repository.NewAccountRepository(db)
	mailboxes := repository.NewMailboxRepository(db)
	envelopes := index.NewGormEnvelopeIndex(db)

	storageService := storage.NewR2StorageService(
		cfg.R2StorageConfig.AccountID,
		cfg.R2StorageConfig.AccessKeyID,
		cfg.R2StorageConfig.AccessKeySecret,
		cfg.R2StorageConfig.EMLBucket,
		false,
	)
	eml := index.NewR2EMLIndex(storageService)

	pool := imap.NewPool(accounts, cipher, log)

	channelSink := dispatcher.NewChannelDispatcher(256, log)
	dispatch := interfaces.StatusDispatcher(channelSink)
	if cfg.AppConfig.RabbitMQURL != "" {
		amqpSink, err := dispatcher.NewAMQPDispatcher(cfg.AppConfig.RabbitMQURL, log)
		if err != nil {
			log.Warnf("amqp status dispatcher disabled: %v", err)
		} else {
			dispatch = dispatcher.NewFanoutDispatcher(channelSink, amqpSink)
		}
	}
	go drainStatusEvents(channelSink, log)

	tracker := syncstate.NewTracker()

	engine := syncengine.NewEngine(syncengine.Config{
		Pool:         pool,
		Mailboxes:    mailboxes,
		Envelopes:    envelopes,
		EML:          eml,
		Dispatcher:   dispatch,
		Tracker:      tracker,
		Log:          log,
		SemaphoreCap: cfg.AppConfig.SemaphoreSize,
	})

	var k8sClient kubernetes.Interface
	if inClusterCfg, err := rest.InClusterConfig(); err == nil {
		if client, err := kubernetes.NewForConfig(inClusterCfg); err == nil {
			k8sClient = client
		}
	}

	manager := cron.NewCronManager(log, k8sClient, accounts, engine)
	podName := os.Getenv("POD_NAME")
	namespace := os.Getenv("POD_NAMESPACE")
	if err := manager.Start(podName, namespace); err != nil {
		return fmt.Errorf("cron manager start: %w", err)
	}

	log.Info("bichon sync scheduler started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	manager.Stop()
	log.Info("bichon sync scheduler stopped")
	return nil
}

func runStatus(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}

	accounts := repository.NewAccountRepository(db)
	mailboxes := repository.NewMailboxRepository(db)

	enabled, err := accounts.ListEnabled(c.Context)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	for _, account := range enabled {
		rows, err := mailboxes.ListAll(c.Context, account.ID)
		if err != nil {
			log.Errorf("list mailboxes for %s: %v", account.ID, err)
			continue
		}
		printMailboxTable(account.Email, rows)
	}

	return nil
}
