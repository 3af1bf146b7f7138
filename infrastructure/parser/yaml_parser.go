// Package parser reads host configuration files.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/middle-dev/middle-sdk/domain/entities"
	domainerrors "github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// YamlConfigParser implements ports.ConfigParser for YAML.
type YamlConfigParser struct{}

// NewYamlConfigParser creates a new YamlConfigParser.
func NewYamlConfigParser() ports.ConfigParser {
	return &YamlConfigParser{}
}

// Parse unmarshals YAML bytes over entities.DefaultHostConfig. Unknown keys
// are rejected.
func (p *YamlConfigParser) Parse(data []byte) (*entities.HostConfig, error) {
	cfg := entities.DefaultHostConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &domainerrors.ConfigError{Err: fmt.Errorf("failed to parse config: %w", err)}
	}
	return &cfg, nil
}
