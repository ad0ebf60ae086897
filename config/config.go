package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// SSHDefaults holds the processor-wide fallback transfer credentials used
// when neither the query nor the owning user's settings supply them.
type SSHDefaults struct {
	Host                    string        `env:"PROCESSOR_SSH_HOST"`
	Port                    int           `env:"PROCESSOR_SSH_PORT" envDefault:"22"`
	Username                string        `env:"PROCESSOR_SSH_USERNAME"`
	Password                string        `env:"PROCESSOR_SSH_PASSWORD"`
	Key                     string        `env:"PROCESSOR_SSH_KEY"`
	KeyPassphrase           string        `env:"PROCESSOR_SSH_KEY_PASSPHRASE"`
	KnownHosts              string        `env:"PROCESSOR_SSH_KNOWN_HOSTS"`
	Timeout                 time.Duration `env:"PROCESSOR_SSH_TIMEOUT_SECONDS" envDefault:"30s"`
	KeepaliveInterval       time.Duration `env:"PROCESSOR_SSH_KEEPALIVE_INTERVAL_SECONDS" envDefault:"30s"`
}

// Config is the full set of processor-wide options: scheduler tunables,
// export and transfer defaults, and logging verbosity. It is loaded once
// at startup; there is no live reconfiguration.
//
// Variables whose names end in _SECONDS are parsed as Go duration strings
// such as "10s" or "1m"; a bare number such as "10" is rejected.
type Config struct {
	CheckInterval          time.Duration `env:"PROCESSOR_CHECK_INTERVAL_SECONDS" envDefault:"10s"`
	GlobalMaxParallel      int           `env:"PROCESSOR_GLOBAL_MAX_PARALLEL" envDefault:"50"`
	DefaultUserMaxParallel int           `env:"PROCESSOR_DEFAULT_USER_MAX_PARALLEL" envDefault:"3"`
	DefaultQueueTimeout    time.Duration `env:"PROCESSOR_DEFAULT_QUEUE_TIMEOUT_SECONDS" envDefault:"3600s"`

	DefaultExportType     string `env:"PROCESSOR_DEFAULT_EXPORT_TYPE" envDefault:"csv"`
	DefaultExportLocation string `env:"PROCESSOR_DEFAULT_EXPORT_LOCATION" envDefault:"./exports"`
	TmpExportLocation     string `env:"PROCESSOR_TMP_EXPORT_LOCATION" envDefault:"./tmp/exports"`

	SSH SSHDefaults `envPrefix:""`

	LogLevel  string `env:"PROCESSOR_LOG_LEVEL" envDefault:"info"`
	LogJSON   bool   `env:"PROCESSOR_LOG_JSON" envDefault:"true"`

	DatabaseDSN string `env:"PROCESSOR_DATABASE_DSN" envDefault:"postgres://localhost:5432/db_client?sslmode=disable"`

	StuckQueryThreshold time.Duration `env:"PROCESSOR_STUCK_QUERY_THRESHOLD_SECONDS" envDefault:"1800s"`
	ReaperInterval      time.Duration `env:"PROCESSOR_REAPER_INTERVAL_SECONDS" envDefault:"60s"`

	ShutdownTimeout time.Duration `env:"PROCESSOR_SHUTDOWN_TIMEOUT_SECONDS" envDefault:"30s"`
}

// ValidExportTypes enumerates the export_type values a query or a user's
// settings may request.
var ValidExportTypes = []string{"csv", "excel", "json", "feather"}

// Load parses Config from the environment. It is the only place
// environment variables are read; nothing else in the processor calls
// os.Getenv directly.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
