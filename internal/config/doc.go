// Package config loads the cma command configuration.
package config
