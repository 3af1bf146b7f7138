package sdk

import (
	"time"

	"github.com/middle-dev/middle-sdk/resumable"
)

// Pause asks the host whether d has elapsed for this call site. It is Ready
// once the host says so and Pause until then; the host re-invokes the
// workflow when the timer completes.
func (c *Client) Pause(d time.Duration) resumable.Resumable[struct{}] {
	millis := d.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	if c.imports.Pause(uint64(millis)) == 0 {
		return resumable.Pause[struct{}]()
	}
	return resumable.Ready(struct{}{})
}
