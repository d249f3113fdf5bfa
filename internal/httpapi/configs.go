package httpapi

import "time"

// DefaultAddress is where the API listens when no address is configured.
const DefaultAddress = ":3000"

// Config holds the HTTP server settings.
type Config struct {
	// Address is the listen address, e.g. ":3000".
	Address string `yaml:"address" envconfig:"HTTP_ADDRESS" default:":3000"`

	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`

	// MaxBodyBytes caps request bodies. Zero means 1 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes" envconfig:"HTTP_MAX_BODY_BYTES"`
}
