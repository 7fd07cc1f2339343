package config

import "time"

// Config represents the full tabdo configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Storage backend settings
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// HTTP server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// StoreConfig selects and configures the entity store
type StoreConfig struct {
	// Backend is "sqlite" or "neo4j"
	Backend string      `yaml:"backend" mapstructure:"backend"`
	Path    string      `yaml:"path" mapstructure:"path"`
	Neo4j   Neo4jConfig `yaml:"neo4j" mapstructure:"neo4j"`
}

// Neo4jConfig holds graph database connection settings
type Neo4jConfig struct {
	URI      string `yaml:"uri" mapstructure:"uri"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr       string        `yaml:"addr" mapstructure:"addr"`
	SecretPath string        `yaml:"secret_path" mapstructure:"secret_path"`
	SessionTTL time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}
