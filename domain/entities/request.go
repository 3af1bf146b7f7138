package entities

import (
	"encoding/json"
	"time"
)

// HTTPMethod enumerates the request methods the host accepts.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
	MethodHead   HTTPMethod = "HEAD"
)

// KeyValue is an ordered (key, value) pair used for headers and form fields.
type KeyValue struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// BasicAuth holds credentials for HTTP basic authentication.
type BasicAuth struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

// HostRequest is the request description sent through host_request.
type HostRequest struct {
	URL        string          `json:"url" validate:"required,url"`
	Method     HTTPMethod      `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE HEAD"`
	Headers    []KeyValue      `json:"headers,omitempty" validate:"omitempty,dive"`
	BasicAuth  *BasicAuth      `json:"basic_auth,omitempty"`
	BearerAuth *string         `json:"bearer_auth,omitempty"`
	Body       *string         `json:"body,omitempty"`
	Timeout    *time.Duration  `json:"timeout,omitempty" validate:"omitempty,gt=0"`
	Form       []KeyValue      `json:"form,omitempty" validate:"omitempty,dive"`
	JSON       json.RawMessage `json:"json,omitempty"`
}

// HostResponse is the HTTP response produced by the host.
type HostResponse struct {
	StatusCode uint32     `json:"http_code"`
	Headers    []KeyValue `json:"headers"`
	Body       string     `json:"body"`
}

// RequestResult carries either a response or the host's error text.
type RequestResult struct {
	OK  *HostResponse `json:"ok,omitempty"`
	Err string        `json:"err,omitempty"`
}
