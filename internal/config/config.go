// Package config loads the service configuration from configs/config.yaml and
// PAYBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Reporting ReportingConfig `mapstructure:"reporting"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
	// OutcomeWait bounds how long the HTTP harness waits for an attempt's outcome.
	OutcomeWait time.Duration `mapstructure:"outcome_wait" validate:"gt=0"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

type BridgeConfig struct {
	DefaultCurrency string `mapstructure:"default_currency" validate:"oneof=LKR USD GBP EUR AUD"`
	DefaultSandbox  bool   `mapstructure:"default_sandbox"`
	// Adapter selects the NativeSDK used by the server: "mock" or "checkout".
	Adapter string `mapstructure:"adapter" validate:"oneof=mock checkout"`
	// SchemaPath overrides the built-in description contract when set.
	SchemaPath string `mapstructure:"schema_path"`
}

type CheckoutConfig struct {
	SandboxURL       string        `mapstructure:"sandbox_url" validate:"url"`
	LiveURL          string        `mapstructure:"live_url" validate:"url"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"gte=0"`
	ResetTimeout     time.Duration `mapstructure:"reset_timeout" validate:"gte=0"`
}

// KafkaConfig enables the outcome event publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required_with=Brokers"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Pretty  bool `mapstructure:"pretty"`
}

type ReportingConfig struct {
	JournalSize int `mapstructure:"journal_size" validate:"gte=0"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads the config file at path, or configs/config.yaml when path is empty,
// applies environment overrides and validates the result. A missing default config
// file is not an error; the built-in defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("PAYBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &cfg
	appConfigMu.Unlock()

	return &cfg, nil
}

// Get returns the most recently loaded configuration, or nil before Load.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.outcome_wait", "30s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("bridge.default_currency", "LKR")
	v.SetDefault("bridge.default_sandbox", true)
	v.SetDefault("bridge.adapter", "mock")
	v.SetDefault("bridge.schema_path", "")

	v.SetDefault("checkout.sandbox_url", "https://sandbox.payhere.lk")
	v.SetDefault("checkout.live_url", "https://www.payhere.lk")
	v.SetDefault("checkout.timeout", "30s")
	v.SetDefault("checkout.failure_threshold", 3)
	v.SetDefault("checkout.reset_timeout", "30s")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "payment-outcomes")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.pretty", false)

	v.SetDefault("reporting.journal_size", 1000)
}
