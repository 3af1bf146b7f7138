package entities

// PromptIn asks the host to collect a value matching Schema.
type PromptIn struct {
	Schema map[string]any `json:"schema"`
}

// PromptAnswer is the ready payload of a prompt: a value or an error text.
type PromptAnswer struct {
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}
