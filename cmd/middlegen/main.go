// Command middlegen writes the entry point registration and wasm export
// shims for a guest package.
//
//	//go:generate go run github.com/middle-dev/middle-sdk/cmd/middlegen
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
