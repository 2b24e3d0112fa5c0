// Package config provides configuration management for the activity pipeline.
// It handles loading configuration from multiple sources, validation, and the
// conversion into derivation parameters.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MAI_* for namespacing:
//
//	MAI_LOGGING_LEVEL=debug
//	MAI_PATHS_DATA_DIR=/data/exports
//	MAI_PIPELINE_IQR_MULTIPLIER=2.5
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load(configFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	params, err := cfg.Pipeline.Params()
package config
