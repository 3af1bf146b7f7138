package ports

import (
	"context"

	"github.com/middle-dev/middle-sdk/domain/entities"
)

// HTTPClient performs the requests guests issue through host_request.
type HTTPClient interface {
	// Do executes the request and returns the response. Transport failures
	// are returned as errors; any HTTP status is a response.
	Do(ctx context.Context, req entities.HostRequest) (*entities.HostResponse, error)
}
