package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StateBackend selects where the session record is kept.
type StateBackend string

const (
	StateBackendFile   StateBackend = "file"
	StateBackendMemory StateBackend = "memory"
	StateBackendRedis  StateBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StateBackend.
func (b *StateBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "memory", "redis":
		*b = StateBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StateBackend: %q (valid options: file, memory, redis)", v)
	}
}

// StateConfig configures the session record store.
type StateConfig struct {
	Backend StateBackend `env:"STATE_BACKEND" envDefault:"file"`
	// File is the JSON file used by the file backend. Defaults to
	// <user config dir>/cutdesk/state.json.
	File string `env:"STATE_FILE"`
	// Key selects the record (profile) in the Redis backend.
	Key string        `env:"STATE_KEY" envDefault:"default"`
	TTL time.Duration `env:"STATE_TTL" envDefault:"0s"`

	Redis RedisConfig `envPrefix:"REDIS_"`
}

// Sanitize fills the default state file path.
func (c *StateConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StateBackendFile
	}
	c.File = strings.TrimSpace(c.File)
	if c.File == "" {
		c.File = DefaultStateFile()
	}
	if c.Key = strings.TrimSpace(c.Key); c.Key == "" {
		c.Key = "default"
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
}

// DefaultStateFile returns the per-user state file location.
func DefaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "cutdesk", "state.json")
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
