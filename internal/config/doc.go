// Package config loads querytask settings from environment variables
// (QUERYTASK_ prefix) and an optional config.yaml, applies defaults and
// validates the result before any component is built from it.
package config
