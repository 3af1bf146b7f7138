package ports

import "github.com/middle-dev/middle-sdk/domain/entities"

// ConfigParser parses raw configuration bytes into a HostConfig.
type ConfigParser interface {
	// Parse unmarshals bytes over the defaults and returns the result.
	Parse(data []byte) (*entities.HostConfig, error)
}
