package entities

// FnInfo is the introspection record returned by an info entry point.
// Schemas are JSON Schema documents in their generic map form.
type FnInfo struct {
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"in_schema"`
	OutputSchema map[string]any `json:"out_schema"`
}
