// Package config defines the application configuration and loads it from
// YAML or JSON files layered over built-in defaults.
package config
