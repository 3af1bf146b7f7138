package entities

import "fmt"

// PanicReport describes a guest fault caught at an entry point boundary.
type PanicReport struct {
	// Entry is the export name that was running when the fault happened.
	Entry    string `json:"entry,omitempty"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// String renders the report as "message at file:line".
func (r PanicReport) String() string {
	if r.File == "" {
		return r.Message
	}
	return fmt.Sprintf("%s at %s:%d", r.Message, r.File, r.Line)
}
