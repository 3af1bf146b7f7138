package host_test

import "github.com/middle-dev/middle-sdk/hostfuncs"

func hostRun(id string) *hostfuncs.Run {
	return hostfuncs.NewRun(id, 0)
}
