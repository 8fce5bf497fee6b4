// Package config loads, normalizes, and validates humanparts configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the HUMANPARTS_DATASET_DIR
// environment override. The Config type centralizes the dataset mirror, fetch
// behaviour, category variant, and fusion tables so every command sees the
// same values.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
