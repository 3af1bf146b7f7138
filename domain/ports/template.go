package ports

// TemplateEngine renders named templates against arbitrary data.
type TemplateEngine interface {
	// Render executes the template text with data and returns the output.
	// Missing keys are errors.
	Render(name string, text string, data any) ([]byte, error)
}
