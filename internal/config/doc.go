// Package config loads and validates framegrab configuration from TOML.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/framegrab/config.toml, then ./framegrab.toml. Missing files fall
// back to built-in defaults so the tool runs without any configuration.
package config
