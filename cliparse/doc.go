// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Settings are layered, highest first:

 1. CLI flags given on the command line
 2. Environment variables, including a .env file (-env, default ".env")
 3. YAML config file (-c path)
 4. Defaults

A variable already present in the environment is never replaced by the
.env file.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: connection string (default for sqlite: scanvote.db)
  - SessionSecret: HMAC secret for session tokens (required)
  - BaseURL: public origin used in poll links (default: http://localhost:3318)
  - StoreTimeout: per-transaction database timeout (default: 5s)
  - CORSOrigins: allowed origins (default: any)
  - LogLevel: debug, info, warn, error (default: info)
  - LogFormat: text or json (default: text)

# CLI Flags and Environment Variables

	-p               PORT
	-d               DATABASE_URL
	-t               DATABASE_TYPE
	-session-secret  SESSION_SECRET
	-base-url        BASE_URL
	-store-timeout   STORE_TIMEOUT
	-cors            CORS_ORIGINS (comma-separated)
	-log-level       LOG_LEVEL
	-log-format      LOG_FORMAT

# YAML File

	port: 8080
	database_type: postgres
	database_url: postgres://scanvote@localhost/scanvote?sslmode=disable
	store_timeout: 3s
	cors_origins:
	  - https://vote.example.com

# Validation

ParseFlags returns an error if SESSION_SECRET is missing, if postgres is
selected without a URL, or if any value is out of range.
*/
package cliparse
