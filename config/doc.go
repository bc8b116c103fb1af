// Package config provides configuration loading and validation for mediagate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (MEDIAGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with MEDIAGATE_ prefix:
//   - server.port → MEDIAGATE_SERVER_PORT
//   - storage.type → MEDIAGATE_STORAGE_TYPE
//   - rate_limit.login.requests → MEDIAGATE_RATE_LIMIT_LOGIN_REQUESTS
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, proxy trust, and file route protection
//   - Storage: backend type (filesystem/s3) and its settings
//   - Auth: user credentials and session TTL
//   - RateLimit: per-route budgets, throttle, and the optional redis store
//   - CORS: cross-origin resource sharing settings
//   - Monitoring: metrics endpoint settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Storage type must be filesystem or s3
//   - Log level must be debug, info, warn, or error
//
// The s3 backend additionally requires a bucket, and the filesystem backend
// a path.
package config
