package sdk

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
)

// validate is shared; validator.New is expensive.
var validate = validator.New()

// RequestBuilder describes an HTTP request performed by the host.
// Methods return the builder so calls can be chained; the first error
// encountered (for example an unencodable JSON body) is reported by Call.
type RequestBuilder struct {
	req entities.HostRequest
	err error
}

// NewRequest starts a request for url with the given method.
func NewRequest(method entities.HTTPMethod, url string) *RequestBuilder {
	return &RequestBuilder{req: entities.HostRequest{URL: url, Method: method}}
}

// Get starts a GET request.
func Get(url string) *RequestBuilder { return NewRequest(entities.MethodGet, url) }

// Post starts a POST request.
func Post(url string) *RequestBuilder { return NewRequest(entities.MethodPost, url) }

// Put starts a PUT request.
func Put(url string) *RequestBuilder { return NewRequest(entities.MethodPut, url) }

// Patch starts a PATCH request.
func Patch(url string) *RequestBuilder { return NewRequest(entities.MethodPatch, url) }

// Delete starts a DELETE request.
func Delete(url string) *RequestBuilder { return NewRequest(entities.MethodDelete, url) }

// Head starts a HEAD request.
func Head(url string) *RequestBuilder { return NewRequest(entities.MethodHead, url) }

// WithJSON sends v as a JSON body.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	raw, err := json.Marshal(v)
	if err != nil {
		b.setErr(fmt.Errorf("encode json body: %w", err))
		return b
	}
	b.req.JSON = raw
	return b
}

// WithBearerAuth sets a bearer token.
func (b *RequestBuilder) WithBearerAuth(token string) *RequestBuilder {
	b.req.BearerAuth = &token
	return b
}

// SetFormKey appends a form field. Keys may repeat.
func (b *RequestBuilder) SetFormKey(key, value string) *RequestBuilder {
	b.req.Form = append(b.req.Form, entities.KeyValue{Key: key, Value: value})
	return b
}

// SetBasicAuth sets basic auth credentials.
func (b *RequestBuilder) SetBasicAuth(username, password string) *RequestBuilder {
	b.req.BasicAuth = &entities.BasicAuth{Username: username, Password: password}
	return b
}

// WithHeader appends a raw header.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.req.Headers = append(b.req.Headers, entities.KeyValue{Key: key, Value: value})
	return b
}

// WithBody sets a raw body. Prefer WithJSON or SetFormKey.
func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	b.req.Body = &body
	return b
}

// WithTimeout bounds the request from connect until the body is read.
func (b *RequestBuilder) WithTimeout(d time.Duration) *RequestBuilder {
	b.req.Timeout = &d
	return b
}

// Build returns the request description.
func (b *RequestBuilder) Build() entities.HostRequest {
	return b.req
}

// Validate checks the request before it is sent.
func (b *RequestBuilder) Validate() error {
	if b.err != nil {
		return b.err
	}
	if err := validate.Struct(b.req); err != nil {
		var verrs validator.ValidationErrors
		if stdErrors.As(err, &verrs) && len(verrs) > 0 {
			return &errors.ConfigError{Field: verrs[0].Namespace(), Err: err}
		}
		return &errors.ConfigError{Err: err}
	}
	bodies := 0
	for _, set := range []bool{b.req.Body != nil, len(b.req.Form) > 0, len(b.req.JSON) > 0} {
		if set {
			bodies++
		}
	}
	if bodies > 1 {
		return &errors.ConfigError{Field: "body", Err: stdErrors.New("only one of body, form and json may be set")}
	}
	return nil
}

// Call performs the request through the client carried by ctx.
func (b *RequestBuilder) Call(ctx context.Context) (*Response, error) {
	return FromContext(ctx).Request(b)
}

func (b *RequestBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Response is the host's answer to a request.
type Response struct {
	raw entities.HostResponse
}

// Code returns the HTTP status code.
func (r *Response) Code() uint32 { return r.raw.StatusCode }

// Body returns the raw body.
func (r *Response) Body() string { return r.raw.Body }

// Headers returns the raw headers in received order.
func (r *Response) Headers() []entities.KeyValue { return r.raw.Headers }

// Header returns the first value of the named header, case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	for _, kv := range r.raw.Headers {
		if strings.EqualFold(kv.Key, name) {
			return kv.Value, true
		}
	}
	return "", false
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal([]byte(r.raw.Body), v)
}

// Request sends b through host_request. Transport failures reported by the
// host come back as *errors.NetworkError.
func (c *Client) Request(b *RequestBuilder) (*Response, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	blk, err := c.send(b.req)
	if err != nil {
		return nil, err
	}

	var out entities.RequestResult
	if err := c.receive("host_request", c.imports.Request(blk.Addr, blk.Len), &out); err != nil {
		return nil, err
	}
	if out.Err != "" || out.OK == nil {
		msg := out.Err
		if msg == "" {
			msg = "host returned neither response nor error"
		}
		return nil, &errors.NetworkError{Operation: "request", Target: b.req.URL, Err: stdErrors.New(msg)}
	}
	return &Response{raw: *out.OK}, nil
}
