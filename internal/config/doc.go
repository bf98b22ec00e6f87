// Package config loads, normalizes, and validates thumbgen configuration.
//
// Settings come from repository defaults, an optional TOML file
// (thumbgen.toml in the working directory or the --config path) and the
// THUMBGEN_HOST environment variable, in increasing order of precedence.
// Relative asset paths resolve against the directory of the config file so
// the tool behaves the same from any working directory.
package config
