package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config mirrors the env-driven logging knobs the rest of the ambient
// stack expects (caarlos0/env struct tags).
type Config struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	DevMode   bool   `env:"LOG_DEV_MODE" envDefault:"false"`
	Encoding  string `env:"LOG_ENCODING" envDefault:"json"`
	AppName   string `env:"LOG_APP_NAME" envDefault:"bichon"`
	AppFormat string `env:"LOG_APP_FORMAT" envDefault:""`
}

// Logger is the shape internal/tracing expects: a small facade over zap so
// callers never import zap directly.
type Logger interface {
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Logger() *zap.Logger
}

type appLogger struct {
	sugar *zap.SugaredLogger
	zl    *zap.Logger
}

func NewAppLogger(cfg *Config) (Logger, error) {
	level := zapcore.InfoLevel
	if cfg != nil && cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	zapCfg := zap.NewProductionConfig()
	if cfg != nil && cfg.DevMode {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg != nil && cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}

	zl, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &appLogger{sugar: zl.Sugar(), zl: zl}, nil
}

func (l *appLogger) Info(args ...interface{})                    { l.sugar.Info(args...) }
func (l *appLogger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *appLogger) Warn(args ...interface{})                    { l.sugar.Warn(args...) }
func (l *appLogger) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *appLogger) Error(args ...interface{})                   { l.sugar.Error(args...) }
func (l *appLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }
func (l *appLogger) Fatalf(template string, args ...interface{}) { l.sugar.Fatalf(template, args...) }
func (l *appLogger) Logger() *zap.Logger                         { return l.zl }
