package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Sweeps enabled IMAP accounts and runs any whose sync_interval_min
	// has elapsed, every minute.
	CronScheduleSync string `env:"CRON_SCHEDULE_SYNC" envDefault:"0 * * * * *"`
}
