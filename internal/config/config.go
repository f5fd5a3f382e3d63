package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8069" validate:"min=1000,max=65535"`

	MaxNameLength      int   `env:"MAX_NAME_LENGTH"      envDefault:"64"    validate:"min=1,max=256"`
	WsReadLimit        int64 `env:"WS_READ_LIMIT"        envDefault:"65536" validate:"min=512"`
	WsSendQueue        int   `env:"WS_SEND_QUEUE"        envDefault:"64"    validate:"min=1,max=4096"`
	DeliveryFailureAck bool  `env:"DELIVERY_FAILURE_ACK" envDefault:"false"`

	RedisEnabled       bool   `env:"REDIS_ENABLED"        envDefault:"false"`
	RedisHost          string `env:"REDIS_HOST"           envDefault:"localhost"`
	RedisPort          uint16 `env:"REDIS_PORT"           envDefault:"6379" validate:"min=1000,max=65535"`
	RedisNotifyChannel string `env:"REDIS_NOTIFY_CHANNEL" envDefault:"presence:notifications" validate:"required"`

	JournalEnabled       bool          `env:"JOURNAL_ENABLED"        envDefault:"false"`
	JournalBatchSize     int           `env:"JOURNAL_BATCH_SIZE"     envDefault:"100" validate:"min=1,max=10000"`
	JournalFlushInterval time.Duration `env:"JOURNAL_FLUSH_INTERVAL" envDefault:"2s"  validate:"gt=0"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"presence"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"presence"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"presence"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
