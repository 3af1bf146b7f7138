package sdk

import "fmt"

// Print writes msg to the host console.
func (c *Client) Print(msg string) {
	blk, err := c.send(msg)
	if err != nil {
		return
	}
	c.imports.Print(blk.Addr, blk.Len)
}

// Printf formats and writes to the host console.
func (c *Client) Printf(format string, args ...any) {
	c.Print(fmt.Sprintf(format, args...))
}
