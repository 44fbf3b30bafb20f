package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	platformstrings "insighthub/pkg/platform/strings"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Warehouse  WarehouseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Kafka      KafkaConfig
	Cache      CacheConfig
	Governance GovernanceConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `validate:"required"`
	JWTSigningKey  string        `validate:"required,min=16"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig points at the governance schema (playbooks, audit log, alerts).
// An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL          string `validate:"omitempty,url"`
	MaxOpenConns int    `validate:"gte=1"`
	MaxIdleConns int    `validate:"gte=0"`
}

// WarehouseConfig points at the analytics engine that runs playbook templates,
// the detection procedure and the explanation function. Defaults to Database.URL.
type WarehouseConfig struct {
	URL              string        `validate:"omitempty,url"`
	DetectProcedure  string        `validate:"required"`
	GenerateAllProc  string        `validate:"required"`
	ExplainFunction  string        `validate:"required"`
	BreakerTimeout   time.Duration `validate:"gt=0"`
	BreakerThreshold uint32        `validate:"gte=1"`
}

// RedisConfig configures the snapshot cache. An empty URL disables it.
type RedisConfig struct {
	URL          string `validate:"omitempty,url"`
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NATSConfig selects the messaging detector. An empty URL falls back to the
// warehouse detection procedure.
type NATSConfig struct {
	URL           string        `validate:"omitempty,url"`
	DetectSubject string        `validate:"required"`
	DetectTimeout time.Duration `validate:"gt=0"`
}

// KafkaConfig enables mirroring of audit records to a compliance topic.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string `validate:"required"`
}

// CacheConfig holds snapshot TTLs.
type CacheConfig struct {
	PlaybookTTL  time.Duration `validate:"gt=0"`
	PlaybookSize int           `validate:"gte=1"`
	SegmentTTL   time.Duration `validate:"gt=0"`
	InsightTTL   time.Duration `validate:"gt=0"`
}

// GovernanceConfig holds defaults for governed execution.
type GovernanceConfig struct {
	DefaultOrganization string `validate:"required"`
	PlaybookSeedFile    string
	AuditPageLimit      int `validate:"gte=1,lte=1000"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	cfg := Config{
		Server: Server{
			Addr:           getEnv("INSIGHTHUB_ADDR", ":8080"),
			JWTSigningKey:  getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:          dbURL,
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Warehouse: WarehouseConfig{
			URL:              getEnv("WAREHOUSE_URL", dbURL),
			DetectProcedure:  getEnv("WAREHOUSE_DETECT_PROCEDURE", "analytics.detect_anomalies"),
			GenerateAllProc:  getEnv("WAREHOUSE_GENERATE_INSIGHTS_PROCEDURE", "analytics.generate_all_insights"),
			ExplainFunction:  getEnv("WAREHOUSE_EXPLAIN_FUNCTION", "analytics.generate_insight_explanation"),
			BreakerTimeout:   getDuration("EXPLAIN_BREAKER_TIMEOUT", 30*time.Second),
			BreakerThreshold: uint32(getInt("EXPLAIN_BREAKER_THRESHOLD", 5)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			DetectSubject: getEnv("NATS_DETECT_SUBJECT", "insighthub.detection.run"),
			DetectTimeout: getDuration("NATS_DETECT_TIMEOUT", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("AUDIT_TOPIC", "insighthub.audit.executions"),
		},
		Cache: CacheConfig{
			PlaybookTTL:  getDuration("PLAYBOOK_CACHE_TTL", 10*time.Minute),
			PlaybookSize: getInt("PLAYBOOK_CACHE_SIZE", 64),
			SegmentTTL:   getDuration("SEGMENT_CACHE_TTL", 5*time.Minute),
			InsightTTL:   getDuration("INSIGHT_CACHE_TTL", 5*time.Minute),
		},
		Governance: GovernanceConfig{
			DefaultOrganization: getEnv("DEFAULT_ORGANIZATION", "Dashboard"),
			PlaybookSeedFile:    os.Getenv("PLAYBOOK_SEED_FILE"),
			AuditPageLimit:      getInt("AUDIT_PAGE_LIMIT", 200),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

