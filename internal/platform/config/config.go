package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	Redis         RedisConfig
	Kafka         KafkaConfig
	Verification  VerificationConfig
	Lifecycle     LifecycleConfig
	Evidence      EvidenceConfig
}

// EvidenceConfig locates the development evidence store. Production swaps in
// object storage behind the same port.
type EvidenceConfig struct {
	Dir     string
	BaseURL string
}

// RedisConfig tunes the shared Redis client. An empty URL disables Redis and
// the OTP store falls back to its in-memory implementation.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig wires the audit event stream. Empty seeds disable Kafka and
// audit events stay on the in-process store.
type KafkaConfig struct {
	Seeds             []string
	AuditTopic        string
	NotificationTopic string
}

// VerificationConfig carries workflow tunables.
type VerificationConfig struct {
	// DeadlineDays is how long a new principal has to complete stage 1
	// before the lifecycle sweep deactivates the account.
	DeadlineDays int
}

// LifecycleConfig carries sweep tunables.
type LifecycleConfig struct {
	// SweepSchedule is a cron expression for the periodic sweep.
	SweepSchedule string
	// WarningWindow is how far ahead of the deadline the warning goes out.
	WarningWindow time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	return Server{
		Addr:          envOr("CAMPUSLINK_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("CAMPUSLINK_DATABASE_URL"),
		JWTSigningKey: envOr("CAMPUSLINK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("CAMPUSLINK_REDIS_URL"),
			PoolSize:     envInt("CAMPUSLINK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CAMPUSLINK_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Seeds:             splitNonEmpty(os.Getenv("CAMPUSLINK_KAFKA_SEEDS")),
			AuditTopic:        envOr("CAMPUSLINK_KAFKA_AUDIT_TOPIC", "campuslink.audit"),
			NotificationTopic: envOr("CAMPUSLINK_KAFKA_NOTIFICATION_TOPIC", "campuslink.notifications"),
		},
		Verification: VerificationConfig{
			DeadlineDays: envInt("CAMPUSLINK_VERIFICATION_DEADLINE_DAYS", 30),
		},
		Evidence: EvidenceConfig{
			Dir:     envOr("CAMPUSLINK_EVIDENCE_DIR", "./data/evidence"),
			BaseURL: envOr("CAMPUSLINK_EVIDENCE_BASE_URL", "http://localhost:8080/evidence"),
		},
		Lifecycle: LifecycleConfig{
			SweepSchedule: envOr("CAMPUSLINK_SWEEP_SCHEDULE", "@hourly"),
			WarningWindow: 24 * time.Hour,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
