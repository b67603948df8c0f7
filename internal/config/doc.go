// Package config loads, normalizes, and validates benchenv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment fallbacks. The Config
// type centralizes every knob the CLI needs, so workspace directories, the
// managed Python runtime, and Docker expectations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
