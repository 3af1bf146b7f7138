package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/middle-dev/middle-sdk/domain/entities"
	domainerrors "github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// validate is a package-level singleton; validator.New is expensive.
var validate = validator.New()

var _ ports.ConfigValidator = StructValidator{}

// StructValidator checks `validate` struct tags.
type StructValidator struct{}

// ValidateConfig checks a host configuration.
func (StructValidator) ValidateConfig(cfg *entities.HostConfig) error {
	if cfg == nil {
		return &domainerrors.ConfigError{Err: errors.New("config is nil")}
	}
	return ValidateStruct(cfg)
}

// ValidateStruct validates v and returns a *errors.ConfigError naming the
// first failing field.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domainerrors.ConfigError{
			Field: fe.Namespace(),
			Err:   fmt.Errorf("failed on '%s' rule (value: %v)", fe.Tag(), fe.Value()),
		}
	}
	return &domainerrors.ConfigError{Err: err}
}

// Result validates v and reports every failing field.
func Result(v any) *entities.ValidationResult {
	result := &entities.ValidationResult{Valid: true}
	err := validate.Struct(v)
	if err == nil {
		return result
	}
	result.Valid = false
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result.Errors = append(result.Errors, entities.ValidationError{Message: err.Error()})
		return result
	}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, entities.ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed on '%s' rule", fe.Tag()),
		})
	}
	return result
}
