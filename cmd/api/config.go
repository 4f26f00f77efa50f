package main

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

type apiConfig struct {
	Port     string     `env:"APP_PORT" envDefault:"8255"`
	LogLevel slog.Level `env:"APP_LOG_LEVEL" envDefault:"INFO"`

	// TeamID scopes the MQTT topics: rfid/<TeamID>/card/{status,balance,topup}.
	TeamID    string `env:"TEAM_ID" envDefault:"Mavics"`
	BrokerURL string `env:"MQTT_BROKER_URL" envDefault:""`
	MQTTQoS   uint8  `env:"MQTT_QOS" envDefault:"0"`

	// Empty DSN runs the service on the in-memory store (dev mode).
	PostgresDSN string `env:"PG_DSN" envDefault:""`

	InitialGrant     decimal.Decimal `env:"LEDGER_INITIAL_GRANT" envDefault:"50"`
	AllowNegative    bool            `env:"LEDGER_ALLOW_NEGATIVE" envDefault:"true"`
	PublishQueueSize int             `env:"PUBLISH_QUEUE_SIZE" envDefault:"256"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}
