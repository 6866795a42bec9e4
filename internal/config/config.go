package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultPort is the default admin API port.
	DefaultPort = 8090
	// MaxPort is the maximum valid port number.
	MaxPort = 65535
	// DefaultHost is the default admin API host.
	DefaultHost = "0.0.0.0"
	// DefaultTimeout is the default timeout for HTTP operations.
	DefaultTimeout = 30 * time.Second
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = slog.LevelInfo
	// DefaultCORSMaxAge is the default CORS max age (24 hours).
	DefaultCORSMaxAge = 86400
	// DefaultPollIntervalMs is the runtime's default worker poll cadence.
	DefaultPollIntervalMs = 10

	// BusBackendHTTP, BusBackendMemory and BusBackendKafka are the
	// recognized values of KERNEL_BUS_BACKEND.
	BusBackendHTTP   = "http"
	BusBackendMemory = "memory"
	BusBackendKafka  = "kafka"
)

// Static validation errors.
var (
	ErrInvalidPort            = errors.New("invalid port")
	ErrEmptyHost              = errors.New("host cannot be empty")
	ErrInvalidReadTimeout     = errors.New("read timeout must be positive")
	ErrInvalidWriteTimeout    = errors.New("write timeout must be positive")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidPollInterval    = errors.New("poll interval must be positive")
	ErrInvalidBusBackend      = errors.New("invalid bus backend")
	ErrMissingHTTPBaseURL     = errors.New("bus backend http requires KERNEL_BUS_HTTP_BASE_URL")
	ErrMissingKafkaBrokers    = errors.New("bus backend kafka requires KERNEL_BUS_KAFKA_BROKERS")
)

// KernelConfig holds every option the kernel reads from the environment:
// the admin API's HTTP server settings, the runtime's poll cadence, and
// the bus backend selection. No other environment variables are
// consulted by the core — the loader reads only the working directory.
type KernelConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           slog.Level
	PollIntervalMs     int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int

	BusBackend        string
	BusHTTPBaseURL    string
	BusKafkaBrokers   []string
	BusKafkaGroupID   string
}

// LoadKernelConfig loads kernel configuration from environment variables
// with sensible defaults, mirroring the teacher's ServerConfig loader
// shape one env-var prefix at a time.
func LoadKernelConfig() KernelConfig {
	cfg := KernelConfig{
		Host:               GetEnvStr("KERNEL_HOST", DefaultHost),
		Port:               GetEnvInt("KERNEL_PORT", DefaultPort),
		ReadTimeout:        GetEnvDuration("KERNEL_READ_TIMEOUT", DefaultTimeout),
		WriteTimeout:       GetEnvDuration("KERNEL_WRITE_TIMEOUT", DefaultTimeout),
		ShutdownTimeout:    GetEnvDuration("KERNEL_SHUTDOWN_TIMEOUT", DefaultTimeout),
		LogLevel:           GetEnvLogLevel("KERNEL_LOG_LEVEL", DefaultLogLevel),
		PollIntervalMs:     GetEnvInt("KERNEL_POLL_INTERVAL_MS", DefaultPollIntervalMs),
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Correlation-ID", "X-API-Key"},
		CORSMaxAge:         DefaultCORSMaxAge,
		BusBackend:         GetEnvStr("KERNEL_BUS_BACKEND", BusBackendHTTP),
		BusHTTPBaseURL:     GetEnvStr("KERNEL_BUS_HTTP_BASE_URL", ""),
		BusKafkaGroupID:    GetEnvStr("KERNEL_BUS_KAFKA_GROUP_ID", "kernel"),
	}

	if brokers := GetEnvStr("KERNEL_BUS_KAFKA_BROKERS", ""); brokers != "" {
		cfg.BusKafkaBrokers = ParseCommaSeparatedList(brokers)
	}

	if origins := GetEnvStr("KERNEL_CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CORSAllowedOrigins = ParseCommaSeparatedList(origins)
	}

	if methods := GetEnvStr("KERNEL_CORS_ALLOWED_METHODS", ""); methods != "" {
		cfg.CORSAllowedMethods = ParseCommaSeparatedList(methods)
	}

	if headers := GetEnvStr("KERNEL_CORS_ALLOWED_HEADERS", ""); headers != "" {
		cfg.CORSAllowedHeaders = ParseCommaSeparatedList(headers)
	}

	return cfg
}

// Address returns the admin API address in host:port format.
func (c KernelConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the kernel configuration, mirroring
// ServerConfig.Validate's structure with the bus-backend checks added.
func (c KernelConfig) Validate() error {
	if c.Port <= 0 || c.Port > MaxPort {
		return fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidPort, c.Port, MaxPort)
	}

	if c.Host == "" {
		return ErrEmptyHost
	}

	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidReadTimeout, c.ReadTimeout)
	}

	if c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidWriteTimeout, c.WriteTimeout)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidShutdownTimeout, c.ShutdownTimeout)
	}

	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPollInterval, c.PollIntervalMs)
	}

	switch c.BusBackend {
	case BusBackendHTTP:
		if c.BusHTTPBaseURL == "" {
			return ErrMissingHTTPBaseURL
		}
	case BusBackendMemory:
		// no further configuration required
	case BusBackendKafka:
		if len(c.BusKafkaBrokers) == 0 {
			return ErrMissingKafkaBrokers
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBusBackend, c.BusBackend)
	}

	return nil
}

// ToCORSConfig converts the CORS fields into the shape middleware.CORS
// expects, mirroring api.ServerConfig.ToCORSConfig.
func (c KernelConfig) ToCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: c.CORSAllowedOrigins,
		AllowedMethods: c.CORSAllowedMethods,
		AllowedHeaders: c.CORSAllowedHeaders,
		MaxAge:         c.CORSMaxAge,
	}
}

// CORSConfig holds CORS configuration options for the admin API.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func (c CORSConfig) GetAllowedOrigins() []string { return c.AllowedOrigins }
func (c CORSConfig) GetAllowedMethods() []string { return c.AllowedMethods }
func (c CORSConfig) GetAllowedHeaders() []string { return c.AllowedHeaders }
func (c CORSConfig) GetMaxAge() int              { return c.MaxAge }
