// Package config loads, normalizes, and validates darkroom configuration.
//
// Configuration comes from a TOML file (~/.config/darkroom/config.toml or
// ./darkroom.toml), with environment overrides for secrets so tokens never
// have to live on disk. Loaded configs have all path fields expanded and
// absolute.
package config
