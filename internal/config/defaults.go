package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dataDir := DataDir()
	return &Config{
		Version: "1",
		Store: StoreConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(dataDir, "tabdo.db"),
			Neo4j: Neo4jConfig{
				URI:      "neo4j://localhost:7687",
				Username: "neo4j",
				Database: "neo4j",
			},
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			SecretPath: filepath.Join(dataDir, "secret.key"),
			SessionTTL: 7 * 24 * time.Hour,
		},
	}
}

// DataDir returns the tabdo directory under the XDG data home
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".tabdo"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tabdo")
}

// WriteDefault writes the default configuration to path
func WriteDefault(path string) error {
	return Write(path, DefaultConfig())
}

// Write saves cfg as YAML, creating parent directories
func Write(path string, cfg *Config) error {
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	header := []byte("# tabdo configuration\n")
	return os.WriteFile(path, append(header, content...), 0644)
}

// Encode writes cfg to w as YAML
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
