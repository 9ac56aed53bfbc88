package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Backend selects the storage engine: "mongo", "postgres" or "mysql".
	Backend    string     `yaml:"backend"`
	Databases  Databases  `yaml:"databases"`
	Logging    Logging    `yaml:"logging"`
	Pagination Pagination `yaml:"pagination"`
}

type Databases struct {
	Postgres      string `yaml:"postgres"`
	MySQL         string `yaml:"mysql"`
	Mongo         string `yaml:"mongo"`
	MongoDatabase string `yaml:"mongo_database"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Pagination struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv lets deployment environments override DSNs without editing the
// config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Databases.Mongo = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Databases.Postgres = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.Databases.MySQL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "mongo"
	}
	if c.Databases.MongoDatabase == "" {
		c.Databases.MongoDatabase = "socialdb"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Pagination.DefaultPageSize <= 0 {
		c.Pagination.DefaultPageSize = 10
	}
	if c.Pagination.MaxPageSize <= 0 {
		c.Pagination.MaxPageSize = 100
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case "mongo", "postgres", "mysql":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.DSN() == "" {
		return fmt.Errorf("no DSN configured for backend %q", c.Backend)
	}
	return nil
}

// DSN returns the connection string for the selected backend.
func (c *Config) DSN() string {
	switch c.Backend {
	case "postgres":
		return c.Databases.Postgres
	case "mysql":
		return c.Databases.MySQL
	default:
		return c.Databases.Mongo
	}
}
