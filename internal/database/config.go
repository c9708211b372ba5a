package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	defaultDBName = "default.db"
	memoryDBName  = ":memory:"
)

// Config locates the database file and toggles the connection behaviours.
type Config struct {
	Name string
	Path string
	// ForeignKeys turns on PRAGMA foreign_keys for every connection.
	ForeignKeys bool
	// PrintRequests echoes every statement to the log.
	PrintRequests bool
}

// LoadConfig reads DB_NAME, DB_PATH, DB_FOREIGN_KEYS and DB_PRINT_REQUESTS.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Name:          os.Getenv("DB_NAME"),
		Path:          os.Getenv("DB_PATH"),
		PrintRequests: true,
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cfg.Path = cwd
	}

	var err error
	if cfg.ForeignKeys, err = envBool("DB_FOREIGN_KEYS", false); err != nil {
		return nil, err
	}
	if cfg.PrintRequests, err = envBool("DB_PRINT_REQUESTS", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) InMemory() bool {
	return c.Name == memoryDBName
}

func (c *Config) FullPath() string {
	if c.InMemory() {
		return memoryDBName
	}
	return filepath.Join(c.Path, c.Name)
}

// Validate checks that the database directory exists and is writable.
func (c *Config) Validate() error {
	if c.InMemory() {
		return nil
	}
	info, err := os.Stat(c.Path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory %s does not exist", c.Path)
	}
	tmp, err := os.CreateTemp(c.Path, ".jaguarundi-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", c.Path, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}
