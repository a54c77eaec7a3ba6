package config

import (
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/tracing"
)

// AppConfig holds process-wide knobs for the sync engine itself: none of
// these are per-account, those live on the Account row.
type AppConfig struct {
	SemaphoreSize    int    `env:"BICHON_MAX_CONCURRENT_FOLDERS" envDefault:"20"`
	SessionPoolCap   int    `env:"BICHON_SESSION_POOL_CAP" envDefault:"10"`
	SchedulerTick    string `env:"BICHON_SCHEDULER_TICK" envDefault:"*/1 * * * *"`
	SyncCooldownSecs int    `env:"BICHON_SYNC_COOLDOWN_SECONDS" envDefault:"60"`
	RabbitMQURL      string `env:"RABBITMQ_URL"`
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
}

type DatabaseConfig struct {
	Host            string `env:"BICHON_POSTGRES_HOST,required"`
	Port            string `env:"BICHON_POSTGRES_PORT,required"`
	User            string `env:"BICHON_POSTGRES_USER,required"`
	DBName          string `env:"BICHON_POSTGRES_DB_NAME,required"`
	Password        string `env:"BICHON_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"BICHON_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"BICHON_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"BICHON_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"BICHON_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"BICHON_POSTGRES_SSL_MODE"`
}

// R2StorageConfig configures the default EML object store. Bucket/account
// naming follows the teacher's Cloudflare R2 wrapper.
type R2StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID,required"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID,required"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET,required"`
	EMLBucket       string `env:"BICHON_EML_BUCKET" envDefault:"email-archive"`
}
