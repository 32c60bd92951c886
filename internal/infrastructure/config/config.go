package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scoring service.
type Config struct {
	HTTPPort    int
	GRPCPort    int
	Environment string
	LogLevel    string
	LogFormat   string

	ModelEstimators      int
	ModelSeed            uint64
	ModelTrainingSamples int
	JitterSeed           uint64

	RateLimit          int // requests per second
	CORSAllowedOrigins []string

	KafkaBrokers           []string
	KafkaPredictionsTopic  string
	KafkaTransactionsTopic string
	KafkaConsumerGroup     string
	KafkaTLS               bool
	KafkaSASLMechanism     string
	KafkaSASLUsername      string
	KafkaSASLPassword      string

	OTLPEndpoint string

	GRPCTLSCertFile string
	GRPCTLSKeyFile  string
	GRPCReflection  bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:    getEnvInt("HTTP_PORT", 8000),
		GRPCPort:    getEnvInt("GRPC_PORT", 50051),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		ModelEstimators:      getEnvInt("MODEL_ESTIMATORS", 10),
		ModelSeed:            getEnvUint64("MODEL_SEED", 42),
		ModelTrainingSamples: getEnvInt("MODEL_TRAINING_SAMPLES", 1000),
		JitterSeed:           getEnvUint64("JITTER_SEED", 0),

		RateLimit:          getEnvInt("RATE_LIMIT", 100),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		KafkaBrokers:           getEnvList("KAFKA_BROKERS", nil),
		KafkaPredictionsTopic:  getEnv("KAFKA_PREDICTIONS_TOPIC", "fraud.predictions"),
		KafkaTransactionsTopic: getEnv("KAFKA_TRANSACTIONS_TOPIC", ""),
		KafkaConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "fraudscope-scorer"),
		KafkaTLS:               getEnvBool("KAFKA_TLS", false),
		KafkaSASLMechanism:     getEnv("KAFKA_SASL_MECHANISM", ""),
		KafkaSASLUsername:      getEnv("KAFKA_SASL_USERNAME", ""),
		KafkaSASLPassword:      getEnv("KAFKA_SASL_PASSWORD", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		GRPCTLSCertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
		GRPCTLSKeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),
		GRPCReflection:  getEnvBool("GRPC_REFLECTION", false),
	}
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be in 1..65535, got %d", c.HTTPPort))
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("GRPC_PORT must be in 1..65535, got %d", c.GRPCPort))
	}
	if c.ModelEstimators <= 0 {
		errs = append(errs, fmt.Errorf("MODEL_ESTIMATORS must be positive, got %d", c.ModelEstimators))
	}
	if c.ModelTrainingSamples <= 0 {
		errs = append(errs, fmt.Errorf("MODEL_TRAINING_SAMPLES must be positive, got %d", c.ModelTrainingSamples))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit))
	}
	if (c.GRPCTLSCertFile == "") != (c.GRPCTLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	if c.KafkaTransactionsTopic != "" && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_TRANSACTIONS_TOPIC requires KAFKA_BROKERS"))
	}
	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// KafkaEnabled reports whether a broker list was configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// KafkaSASLEnabled reports whether Kafka connections authenticate with SASL.
func (c *Config) KafkaSASLEnabled() bool {
	return c.KafkaSASLUsername != ""
}

// TLSEnabled reports whether gRPC should serve over TLS.
func (c *Config) TLSEnabled() bool {
	return c.GRPCTLSCertFile != "" && c.GRPCTLSKeyFile != ""
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val, ok := os.LookupEnv(key); ok {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
