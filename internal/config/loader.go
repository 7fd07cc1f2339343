package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TABDO_STORE_BACKEND
const EnvPrefix = "TABDO"

// Load reads configuration from path, falling back to DefaultPath when path is
// empty. A missing file yields the defaults. Environment variables override
// both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can override values absent from the file
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.neo4j.uri", cfg.Store.Neo4j.URI)
	v.SetDefault("store.neo4j.username", cfg.Store.Neo4j.Username)
	v.SetDefault("store.neo4j.password", cfg.Store.Neo4j.Password)
	v.SetDefault("store.neo4j.database", cfg.Store.Neo4j.Database)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.secret_path", cfg.Server.SecretPath)
	v.SetDefault("server.session_ttl", cfg.Server.SessionTTL)
}

// DefaultPath returns the path to the user config file
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tabdo", "config.yaml")
}
