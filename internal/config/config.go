package config

import (
	"time"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/observability"
)

// Config is the root configuration for corelib.
type Config struct {
	Neo4j   Neo4jConfig                 `mapstructure:"neo4j" yaml:"neo4j" json:"neo4j"`
	Logging observability.LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
	Tracing observability.TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
	Export  ExportConfig                `mapstructure:"export" yaml:"export" json:"export"`
}

// Neo4jConfig contains Neo4j connection settings.
type Neo4jConfig struct {
	URI                     string        `mapstructure:"uri" yaml:"uri" json:"uri" validate:"required"`
	Username                string        `mapstructure:"username" yaml:"username" json:"username" validate:"required"`
	Password                string        `mapstructure:"password" yaml:"password" json:"password"`
	Database                string        `mapstructure:"database" yaml:"database" json:"database"`
	MaxConnections          int           `mapstructure:"max_connections" yaml:"max_connections" json:"max_connections" validate:"min=1,max=1000"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" json:"connection_timeout" validate:"min=1s"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time" json:"max_transaction_retry_time" validate:"min=1s"`
}

// ClientConfig converts the settings into a graph client configuration.
func (c Neo4jConfig) ClientConfig() graph.GraphClientConfig {
	return graph.GraphClientConfig{
		URI:                     c.URI,
		Username:                c.Username,
		Password:                c.Password,
		Database:                c.Database,
		MaxConnectionPoolSize:   c.MaxConnections,
		ConnectionTimeout:       c.ConnectionTimeout,
		MaxTransactionRetryTime: c.MaxTransactionRetryTime,
	}
}

// ExportConfig controls how the export command writes the graph.
type ExportConfig struct {
	// Format is json or yaml.
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=json yaml"`

	// Pretty is auto, always or never. Auto indents JSON when stdout is a terminal.
	Pretty string `mapstructure:"pretty" yaml:"pretty" json:"pretty" validate:"oneof=auto always never"`
}

// Redacted returns a copy of c that is safe to print.
func (c Config) Redacted() Config {
	if c.Neo4j.Password != "" {
		c.Neo4j.Password = "[REDACTED]"
	}
	return c
}
