package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const DefaultConnectionString = "mongodb://localhost:27017/booksland"

// Config holds the MongoDB connection and collection layout.
type Config struct {
	ConnectionString string        `yaml:"connection_string"`
	DatabaseName     string        `yaml:"database_name"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	Collections      Collections   `yaml:"collections"`
}

type Collections struct {
	Books      string `yaml:"books"`
	Orders     string `yaml:"orders"`
	Deliveries string `yaml:"deliveries"`
	WebHooks   string `yaml:"webhooks"`
}

func DefaultConfig() Config {
	return Config{
		ConnectionString: DefaultConnectionString,
		ConnectTimeout:   10 * time.Second,
		Collections: Collections{
			Books:      "books",
			Orders:     "orders",
			Deliveries: "deliveries",
			WebHooks:   "webhooks",
		},
	}
}

// ApplyDefaults fills in zero values with defaults. An empty DatabaseName is
// taken from the path of the connection string.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.ConnectionString == "" {
		c.ConnectionString = defaults.ConnectionString
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.Collections.Books == "" {
		c.Collections.Books = defaults.Collections.Books
	}
	if c.Collections.Orders == "" {
		c.Collections.Orders = defaults.Collections.Orders
	}
	if c.Collections.Deliveries == "" {
		c.Collections.Deliveries = defaults.Collections.Deliveries
	}
	if c.Collections.WebHooks == "" {
		c.Collections.WebHooks = defaults.Collections.WebHooks
	}
	if c.DatabaseName == "" {
		if cs, err := connstring.Parse(c.ConnectionString); err == nil && cs.Database != "" {
			c.DatabaseName = cs.Database
		} else {
			c.DatabaseName = "booksland"
		}
	}
}

// ApplyEnvOverrides applies environment variable overrides. The connection
// string itself is read by the top-level config loader.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DB_NAME"); v != "" {
		c.DatabaseName = v
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.ConnectionString == "" {
		return errors.New("property 'dbConnectionString': must be a non empty string")
	}
	if _, err := connstring.Parse(c.ConnectionString); err != nil {
		return fmt.Errorf("property 'dbConnectionString': %w", err)
	}
	if c.DatabaseName == "" {
		return errors.New("storage.database_name is required")
	}
	return nil
}
