package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is a single call against the tracker REST API.
type Request struct {
	// Method is the HTTP method, GET when empty.
	Method string
	// Path is relative to the REST root, e.g. "bug/1017315/comment".
	Path string
	// Query holds optional query parameters.
	Query url.Values
	// Body, when non-nil, is encoded as the JSON request body.
	Body any
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// String returns "METHOD path".
func (r *Request) String() string {
	return r.method() + " " + r.Path
}

// Response is a successful (2xx) answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. Numbers decode as json.Number so
// identifiers survive intact.
func (r *Response) Decode(v any) error {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Requester is what the synchronization controller needs from an HTTP
// client. Do returns an *errs.Error for non-2xx answers.
type Requester interface {
	// Do performs the request.
	Do(ctx context.Context, req *Request) (*Response, error)
	// Authenticated reports whether credentials were accepted.
	Authenticated() bool
}
