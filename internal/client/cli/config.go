package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ServerURL string        `env:"FAVCTL_SERVER,     default=http://localhost:8080"`
	StateFile string        `env:"FAVCTL_STATE_FILE, default=.favctl/state.json"`
	Timeout   time.Duration `env:"FAVCTL_TIMEOUT,    default=15s"`
	LogLevel  string        `env:"FAVCTL_LOG_LEVEL,  default=warn"`
}

// LoadConfig reads CLI configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
