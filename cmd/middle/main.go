// Command middle is the reference host: it loads a compiled guest and lists,
// describes, calls and runs its entry points.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
