// Package config provides configuration loading and validation for the
// flowkit engine.
//
// It uses Viper to load configuration from files and environment variables,
// supporting YAML files, .env files (via godotenv) and environment-specific
// overrides.
//
// # Usage
//
//	var cfg config.EngineConfig
//	err := config.LoadConfig("flowkit", &cfg)
//
// Environment variables override file values using underscore-separated
// paths (e.g., LOGGING_LEVEL, ENGINE_MAX_PARALLEL).
package config
