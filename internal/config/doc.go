// Package config loads corelib configuration.
//
// Values come, in increasing precedence, from built-in defaults, a YAML file
// (default ~/.corelib/config.yaml) and CORELIB_* environment variables, with
// dots in keys replaced by underscores (CORELIB_NEO4J_PASSWORD sets
// neo4j.password). String values may reference the environment as ${VAR}.
//
//	neo4j:
//	  uri: bolt://graph.internal:7687
//	  username: neo4j
//	  password: ${NEO4J_PASSWORD}
//	logging:
//	  level: info
//	  format: json
//	export:
//	  format: yaml
package config
