// Package config handles configuration loading for appsec-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. When no file exists, the entire configuration is read from
// environment variables instead, which matches how the dashboard is usually
// deployed (a .env file next to the binary).
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from APPSEC_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/appsec-gateway/gateway.yaml
//  3. ~/.config/appsec-gateway/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${APPSEC_JWT_SECRET}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  token_ttl: "168h"
//	agent:
//	  timeout: "2m"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:3001"
//
// Database:
//
//	database:
//	  path: "/var/lib/appsec-gateway/users.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${APPSEC_JWT_SECRET}"
//	  token_ttl: "168h"
//
// Analysis agent:
//
//	agent:
//	  api_key: "${ANTHROPIC_API_KEY}"
//	  endpoint: "http://localhost:8700"
//	  environment: "development"
//	  default_role: "simple_query_agent"
//	  reports_dir: "reports"
//
// If jwt_secret is left unset the gateway falls back to a well-known
// placeholder and logs a warning at startup. That fallback exists for local
// development only.
package config
