package sdk

import "github.com/middle-dev/middle-sdk/domain/entities"

// ReportPanic forwards a fault report to the host through the default client.
func ReportPanic(report entities.PanicReport) {
	Default().ReportPanic(report)
}
