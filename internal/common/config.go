// -----------------------------------------------------------------------
// Package common provides shared configuration and process-wide wiring
// for the indexing and search core.
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration, loaded from one or more
// TOML files and overridable by environment variables and CLI flags.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Index       IndexConfig      `toml:"index"`
	Indexer     IndexerConfig    `toml:"indexer"`
	Collection  CollectionConfig `toml:"collection"`
	Messaging   MessagingConfig  `toml:"messaging"`
	Scheduling  SchedulingConfig `toml:"scheduling"`
	Biostudies  BiostudiesConfig `toml:"biostudies"`
	Fire        FireConfig       `toml:"fire"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig configures the REST front end.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// IndexConfig configures the four on-disk indices.
type IndexConfig struct {
	BaseDir string `toml:"base-dir"`
}

// IndexerConfig configures analyzers, the excluded-document-type filter and
// the indexing worker pool.
type IndexerConfig struct {
	Stopwords            []string `toml:"stopwords"`
	ExcludedDocumentTypes string  `toml:"excluded-document-types"`
	ThreadCount          int      `toml:"thread-count"`
	QueueCapacity        int      `toml:"queue-capacity"`
}

// CollectionConfig locates the collection registry and EFO ontology
// resources.
type CollectionConfig struct {
	Registry RegistryLocationConfig `toml:"registry"`
	EFO      RegistryLocationConfig `toml:"efo"`
}

// RegistryLocationConfig holds the registry JSON path.
type RegistryLocationConfig struct {
	Location string `toml:"location"`
}

// MessagingConfig toggles the STOMP broker client.
type MessagingConfig struct {
	Stomp StompConfig `toml:"stomp"`
}

// StompConfig configures the broker-driven update transport.
type StompConfig struct {
	Enabled bool `toml:"enabled"`
}

// SchedulingConfig configures watchdog timings for background workers.
type SchedulingConfig struct {
	Stomp StompSchedulingConfig `toml:"stomp"`
}

// StompSchedulingConfig configures the broker health-check watchdog.
type StompSchedulingConfig struct {
	HealthCheckInterval time.Duration `toml:"health-check-interval"`
	HealthCheckDelay    time.Duration `toml:"health-check-delay"`
}

// BiostudiesConfig groups broker connection settings under the
// `biostudies.rabbitmq.*` namespace.
type BiostudiesConfig struct {
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

// RabbitMQConfig configures the STOMP-over-WebSocket broker connection.
type RabbitMQConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	Login        string   `toml:"login"`
	Passcode     string   `toml:"passcode"`
	Exchange     string   `toml:"exchange"`
	RoutingKeys  []string `toml:"routing-keys"`
	QueueBase    string   `toml:"queue-base-name"`
	Backend      string   `toml:"backend-url"`
	SessionToken string   `toml:"session-token"`
}

// FireConfig configures the S3-compatible object store.
type FireConfig struct {
	Endpoint        string        `toml:"endpoint"`
	Bucket          string        `toml:"bucket"`
	AccessKey       string        `toml:"access-key"`
	SecretKey       string        `toml:"secret-key"`
	PathStyle       bool          `toml:"path-style"`
	PoolSize        int           `toml:"pool-size"`
	ConnectTimeout  time.Duration `toml:"connect-timeout"`
	SocketTimeout   time.Duration `toml:"socket-timeout"`
	FTPRedirect     bool          `toml:"ftp-redirect"`
}

// LoggingConfig configures the arbor logger writers.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Output     []string `toml:"output"`
	TimeFormat string   `toml:"time_format"`
}

// NewDefaultConfig returns the configuration defaults applied before any
// file, environment variable or CLI flag is considered.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8586,
		},
		Index: IndexConfig{
			BaseDir: "./data/index",
		},
		Indexer: IndexerConfig{
			Stopwords:     defaultStopwords(),
			ThreadCount:   8,
			QueueCapacity: 100,
		},
		Collection: CollectionConfig{
			Registry: RegistryLocationConfig{Location: "./config/registry.json"},
			EFO:      RegistryLocationConfig{Location: "./config/efo.json"},
		},
		Messaging: MessagingConfig{
			Stomp: StompConfig{Enabled: false},
		},
		Scheduling: SchedulingConfig{
			Stomp: StompSchedulingConfig{
				HealthCheckInterval: 30 * time.Second,
				HealthCheckDelay:    5 * time.Second,
			},
		},
		Biostudies: BiostudiesConfig{
			RabbitMQ: RabbitMQConfig{
				Host:        "localhost",
				Port:        61614,
				Exchange:    "biostudies-updates",
				RoutingKeys: []string{"biostudies.submission.published", "biostudies.submission.partial"},
				QueueBase:   "biostudies-index",
			},
		},
		Fire: FireConfig{
			PathStyle:      true,
			PoolSize:       20,
			ConnectTimeout: 3000 * time.Millisecond,
			SocketTimeout:  3000 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
	}
}

func defaultStopwords() []string {
	return []string{"a", "an", "and", "are", "as", "at", "be", "but", "by",
		"for", "if", "in", "into", "is", "it", "no", "not", "of", "on",
		"or", "such", "that", "the", "their", "then", "there", "these",
		"they", "this", "to", "was", "will", "with"}
}

// LoadFromFiles loads configuration starting from defaults, merging each
// file in order (later files override earlier ones), then applying
// environment variable overrides. Startup order is always
// defaults -> file1 -> file2 -> ... -> env -> CLI.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BIOSTUDIES_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("BIOSTUDIES_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("BIOSTUDIES_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if base := os.Getenv("BIOSTUDIES_INDEX_BASE_DIR"); base != "" {
		config.Index.BaseDir = base
	}
	if loc := os.Getenv("BIOSTUDIES_REGISTRY_LOCATION"); loc != "" {
		config.Collection.Registry.Location = loc
	}
	if loc := os.Getenv("BIOSTUDIES_EFO_LOCATION"); loc != "" {
		config.Collection.EFO.Location = loc
	}
	if threads := os.Getenv("BIOSTUDIES_INDEXER_THREADS"); threads != "" {
		if n, err := strconv.Atoi(threads); err == nil {
			config.Indexer.ThreadCount = n
		}
	}
	if token := os.Getenv("BIOSTUDIES_SESSION_TOKEN"); token != "" {
		config.Biostudies.RabbitMQ.SessionToken = token
	}
	if level := os.Getenv("BIOSTUDIES_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides, which take the
// highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ParseDurationOr parses a duration string, falling back to def on error or
// blank input. Several registry-adjacent TOML fields are plain strings
// (e.g. "1s") for readability rather than typed durations.
func ParseDurationOr(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
