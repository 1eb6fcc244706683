// Package config loads, validates, and normalizes the Loomvale pipeline
// configuration from TOML. Defaults live in defaults.go; a commented
// sample file is embedded for `loomvale config init`.
package config
