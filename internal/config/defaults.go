package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/astrolabe-oss/corelib/internal/observability"
)

// DefaultConfig returns a Config with sensible default values. The Neo4j
// password is left empty.
func DefaultConfig() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:                     "bolt://localhost:7687",
			Username:                "neo4j",
			MaxConnections:          50,
			ConnectionTimeout:       30 * time.Second,
			MaxTransactionRetryTime: 30 * time.Second,
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "otlp",
			ServiceName: "corelib",
			SampleRate:  1.0,
		},
		Export: ExportConfig{
			Format: "json",
			Pretty: "auto",
		},
	}
}

// setDefaults registers every default with v. Viper only consults the
// environment for keys it knows about, so each key is registered even when
// its default is the zero value.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.username", d.Neo4j.Username)
	v.SetDefault("neo4j.password", d.Neo4j.Password)
	v.SetDefault("neo4j.database", d.Neo4j.Database)
	v.SetDefault("neo4j.max_connections", d.Neo4j.MaxConnections)
	v.SetDefault("neo4j.connection_timeout", d.Neo4j.ConnectionTimeout)
	v.SetDefault("neo4j.max_transaction_retry_time", d.Neo4j.MaxTransactionRetryTime)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.provider", d.Tracing.Provider)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.tls_cert_file", d.Tracing.TLSCertFile)
	v.SetDefault("tracing.insecure_mode", d.Tracing.InsecureMode)

	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.pretty", d.Export.Pretty)
}
