// Package config loads and validates analysis settings.
package config
