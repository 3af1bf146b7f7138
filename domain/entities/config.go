package entities

import (
	"time"
)

// HostConfig configures the reference host that loads and drives guests.
type HostConfig struct {
	// ModuleName is the import module the guest links its host calls against.
	ModuleName string `yaml:"module_name" json:"module_name" validate:"required"`

	// MaxRequestSize caps the payload a single host call may carry.
	MaxRequestSize int `yaml:"max_request_size" json:"max_request_size" validate:"gte=0"`

	// MaxGuestMemory caps the bytes the guest may hold lent or transferred.
	MaxGuestMemory int `yaml:"max_guest_memory" json:"max_guest_memory" validate:"gte=0"`

	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	Workflow WorkflowConfig `yaml:"workflow" json:"workflow"`
	Prompt   PromptConfig   `yaml:"prompt" json:"prompt"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// HTTPConfig controls host_request.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
	MaxBodySize  int64         `yaml:"max_body_size" json:"max_body_size" validate:"gte=0"`
	AllowPrivate bool          `yaml:"allow_private" json:"allow_private"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
}

// WorkflowConfig bounds how a workflow is re-invoked while it is paused.
type WorkflowConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" validate:"gte=0"`
}

// PromptConfig selects how host_prompt is answered.
type PromptConfig struct {
	Mode    string `yaml:"mode" json:"mode" validate:"oneof=cli static"`
	Answers []any  `yaml:"answers" json:"answers"`
}

// LogConfig controls the host logger.
type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

// DefaultHostConfig returns the configuration used when no file is given.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		ModuleName:     "middle",
		MaxRequestSize: 10 * 1024 * 1024,
		MaxGuestMemory: 100 * 1024 * 1024,
		HTTP: HTTPConfig{
			Timeout:     30 * time.Second,
			MaxBodySize: 10 * 1024 * 1024,
			UserAgent:   "middle-host/1.0",
		},
		Workflow: WorkflowConfig{
			MaxAttempts:  100,
			PollInterval: 50 * time.Millisecond,
		},
		Prompt: PromptConfig{Mode: "cli"},
		Log:    LogConfig{Level: "info"},
	}
}

// HostConfigOption is a functional option for adjusting a HostConfig.
type HostConfigOption func(*HostConfig)

// WithHTTPTimeout sets the default host_request timeout.
func WithHTTPTimeout(d time.Duration) HostConfigOption {
	return func(c *HostConfig) {
		if d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

// WithAllowPrivate permits host_request to reach private and loopback networks.
func WithAllowPrivate(allow bool) HostConfigOption {
	return func(c *HostConfig) {
		c.HTTP.AllowPrivate = allow
	}
}

// WithMaxAttempts bounds workflow re-invocations.
func WithMaxAttempts(n int) HostConfigOption {
	return func(c *HostConfig) {
		if n > 0 {
			c.Workflow.MaxAttempts = n
		}
	}
}

// WithPromptAnswers switches the prompt mode to static with the given answers.
func WithPromptAnswers(answers ...any) HostConfigOption {
	return func(c *HostConfig) {
		c.Prompt.Mode = "static"
		c.Prompt.Answers = answers
	}
}

// Apply returns a copy of c with opts applied.
func (c HostConfig) Apply(opts ...HostConfigOption) HostConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
