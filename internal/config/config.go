package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds the API process settings.
type Service struct {
	Environment     string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort         string `envconfig:"SERVICE_API_PORT" default:"8080"`
	Host            string `envconfig:"SERVICE_HOST" default:"localhost:8080"`
	ShutdownTimeSec int    `envconfig:"SERVICE_SHUTDOWN_TIMEOUT_SEC" default:"10"`
}

// SQS holds the event-stream connection settings. Endpoint is only set for
// local development against ElasticMQ.
type SQS struct {
	Endpoint          string `envconfig:"SQS_ENDPOINT"`
	QueueURL          string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region            string `envconfig:"SQS_REGION" required:"true"`
	InteractionsTopic string `envconfig:"SQS_INTERACTIONS_TOPIC" default:"unified-interactions"`
}

// ClickHouse holds the event-archive connection settings.
type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port            string `envconfig:"CLICKHOUSE_PORT" required:"true"`
	Database        string `envconfig:"CLICKHOUSE_DB" required:"true"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// Valkey holds the profile-store and idempotency-filter settings.
type Valkey struct {
	Host                string `envconfig:"VALKEY_HOST" required:"true"`
	Port                string `envconfig:"VALKEY_PORT" required:"true"`
	Password            string `envconfig:"VALKEY_PASSWORD" default:""`
	DB                  int    `envconfig:"VALKEY_DB" default:"0"`
	IdempotencyEnabled  bool   `envconfig:"VALKEY_IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyFailOpen bool   `envconfig:"VALKEY_IDEMPOTENCY_FAIL_OPEN" default:"true"`
	IdempotencyTTLSec   int    `envconfig:"VALKEY_IDEMPOTENCY_TTL_SEC" default:"86400"`
}

// Privacy is the process-wide anonymization and retention configuration.
// It is loaded once at startup and injected read-only; tests construct
// their own instance instead of touching the environment.
type Privacy struct {
	AnonymizeUserIDs     bool   `envconfig:"PRIVACY_ANONYMIZE_USER_IDS" default:"true"`
	StripPII             bool   `envconfig:"PRIVACY_STRIP_PII" default:"true"`
	AnonymizationSalt    string `envconfig:"PRIVACY_ANONYMIZATION_SALT" default:"commerce-studio"`
	EventRetentionDays   int    `envconfig:"PRIVACY_EVENT_RETENTION_DAYS" default:"365"`
	ProfileRetentionDays int    `envconfig:"PRIVACY_PROFILE_RETENTION_DAYS" default:"730"`
	SessionRetentionDays int    `envconfig:"PRIVACY_SESSION_RETENTION_DAYS" default:"30"`
}

// Collector tunes the interaction event collector.
type Collector struct {
	BreakerThreshold   int `envconfig:"COLLECTOR_BREAKER_THRESHOLD" default:"5"`
	BreakerCooldownSec int `envconfig:"COLLECTOR_BREAKER_COOLDOWN_SEC" default:"30"`
}

// Aggregator tunes the stream consumer pipeline.
type Aggregator struct {
	BatchSizeMax    int    `envconfig:"AGGREGATOR_BATCH_SIZE_MAX" default:"500"`
	BatchTimeoutSec int    `envconfig:"AGGREGATOR_BATCH_TIMEOUT_SEC" default:"10"`
	ApplyRetries    int    `envconfig:"AGGREGATOR_APPLY_RETRIES" default:"5"`
	HealthCheckPort string `envconfig:"AGGREGATOR_HEALTH_CHECK_PORT" default:"8081"`
}

// Session identifies avatar chat sessions as an event source. Turns
// recorded by the session machine carry this source, and the collector
// rejects events without one.
type Session struct {
	Platform string `envconfig:"SESSION_PLATFORM" default:"avatar"`
	StoreID  string `envconfig:"SESSION_STORE_ID" default:"commerce-studio"`
}

// Personalization tunes parameter derivation.
type Personalization struct {
	ProactivityThreshold int `envconfig:"PERSONALIZATION_PROACTIVITY_THRESHOLD" default:"10"`
}

// Collaborators holds the base URLs of the external services this pipeline
// delegates to.
type Collaborators struct {
	RecommendationURL string `envconfig:"COLLAB_RECOMMENDATION_URL" default:"http://localhost:9001"`
	ConversationURL   string `envconfig:"COLLAB_CONVERSATION_URL" default:"http://localhost:9002"`
	RenderingURL      string `envconfig:"COLLAB_RENDERING_URL" default:"http://localhost:9003"`
	TimeoutSec        int    `envconfig:"COLLAB_TIMEOUT_SEC" default:"15"`
}

type Config struct {
	Service         Service
	SQS             SQS
	ClickHouse      ClickHouse
	Valkey          Valkey
	Privacy         Privacy
	Collector       Collector
	Aggregator      Aggregator
	Session         Session
	Personalization Personalization
	Collaborators   Collaborators
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
