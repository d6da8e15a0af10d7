// Package config loads, normalizes, and validates lessoncut configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LESSONCUT_RENDERER. The Config type centralizes the timeline viewport knobs,
// export defaults, and logging settings so the CLI, the HTTP API, and the
// export controller all read the same sanitized values.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
