// Package config loads, normalizes, and validates service configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays environment variables such as
// PORT and HASH_METHOD on top. Environment values always win so container
// deployments can configure the service without a file. The Config type
// centralizes every knob the server and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical hash methods, and clear validation errors.
package config
