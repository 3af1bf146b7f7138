package host

import (
	"fmt"
	"os"
	"strings"

	apptemplate "github.com/middle-dev/middle-sdk/application/template"
	"github.com/middle-dev/middle-sdk/application/validation"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/infrastructure/parser"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	templateEngine  ports.TemplateEngine
	parser          ports.ConfigParser
	validator       ports.ConfigValidator
	strictTemplates bool // Fail on missing template keys
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		parser:          parser.NewYamlConfigParser(),
		validator:       validation.StructValidator{},
		strictTemplates: true,
	}
}

// Loader reads host configuration: render, parse, validate.
type Loader struct {
	config loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithParser sets a custom config parser.
func WithParser(p ports.ConfigParser) LoaderOption {
	return func(c *loaderConfig) {
		c.parser = p
	}
}

// WithTemplateEngine sets a template engine.
func WithTemplateEngine(t ports.TemplateEngine) LoaderOption {
	return func(c *loaderConfig) {
		c.templateEngine = t
	}
}

// WithConfigValidator replaces the struct-tag validator.
func WithConfigValidator(v ports.ConfigValidator) LoaderOption {
	return func(c *loaderConfig) {
		c.validator = v
	}
}

// WithStrictTemplates enables/disables strict template mode.
// When enabled (default), rendering fails if a referenced variable is missing.
func WithStrictTemplates(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.strictTemplates = enabled
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.templateEngine == nil {
		cfg.templateEngine = apptemplate.NewGoTemplateEngine(
			apptemplate.WithStrict(cfg.strictTemplates),
		)
	}

	return &Loader{config: cfg}
}

// LoadConfig renders raw as a template with vars available as {{.env.NAME}},
// parses the result over the defaults and validates it.
func (l *Loader) LoadConfig(raw []byte, vars map[string]string) (*entities.HostConfig, error) {
	data := raw

	if len(raw) > 0 && l.config.templateEngine != nil {
		if vars == nil {
			vars = map[string]string{}
		}
		var err error
		data, err = l.config.templateEngine.Render("config", string(raw), map[string]any{"env": vars})
		if err != nil {
			return nil, fmt.Errorf("failed to render config: %w", err)
		}
	}

	cfg, err := l.config.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if l.config.validator != nil {
		if err := l.config.validator.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadConfigFile reads the file at path and loads it with the process
// environment as vars. An empty path yields the validated defaults.
func (l *Loader) LoadConfigFile(path string) (*entities.HostConfig, error) {
	var raw []byte
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return l.LoadConfig(raw, environ())
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
