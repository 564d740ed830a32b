// Package config handles configuration loading for the courier CLI.
//
// It provides functionality for:
//   - Loading configuration from .courier.config.json files
//   - Default configuration values
//   - Merging file values over defaults
package config
