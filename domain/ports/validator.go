package ports

import "github.com/middle-dev/middle-sdk/domain/entities"

// SchemaValidator checks a generic value against a JSON Schema document.
type SchemaValidator interface {
	Validate(schema map[string]any, value any) (*entities.ValidationResult, error)
}

// ConfigValidator checks struct-tag constraints on a HostConfig.
type ConfigValidator interface {
	ValidateConfig(cfg *entities.HostConfig) error
}
