package route

import (
	"net/http"
	"time"
)

// ResponseSink is the response side of a route invocation. At most one of
// Send and End takes effect per request.
type ResponseSink interface {
	// Header returns the response headers to be sent.
	Header() http.Header
	// Status sets the status code used when the response is finalized.
	Status(code int) ResponseSink
	// Send encodes v and finalizes the response.
	Send(v any) error
	// End finalizes the response without a body.
	End() error
	// Sent reports whether the response was finalized.
	Sent() bool
}

// Helpers are handed to generators and processors.
type Helpers struct {
	// Count is the repeat count chosen for this request (1 without a range).
	Count int
	// Render interpolates a template against ctx.
	Render func(tpl any, ctx map[string]any) (any, error)
	// Mock expands mock placeholders and key rules in v.
	Mock func(v any) any
	// DelayCall runs fn after d. A nil d runs fn right away. Once the
	// handler has returned, fn is dropped.
	DelayCall func(d *Delay, fn func())
	// Eval evaluates a bare expression against env.
	Eval func(source string, env map[string]any) (any, error)
}

// GeneratorFunc produces the candidate response for a request.
type GeneratorFunc func(req *Request, res ResponseSink, h *Helpers) (any, error)

// ProcessorFunc post-processes the candidate response. Its result replaces
// the candidate, including a nil result.
type ProcessorFunc func(value any, req *Request, res ResponseSink, h *Helpers) (any, error)

// Request is the request side of a route invocation.
type Request struct {
	*http.Request

	// Params holds the path parameters captured by the router.
	Params map[string]string
	// Payload is the decoded request body: a JSON value for JSON bodies,
	// the raw text otherwise, nil when empty.
	Payload any
	// Received is when dispatch started.
	Received time.Time
}

// Vars exposes the request to templates and expressions as plain values.
func (r *Request) Vars() map[string]any {
	params := make(map[string]any, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}

	query := map[string]any{}
	for k, vs := range r.URL.Query() {
		if len(vs) == 1 {
			query[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		query[k] = list
	}

	headers := make(map[string]any, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	return map[string]any{
		"method":  r.Method,
		"path":    r.URL.Path,
		"url":     r.URL.RequestURI(),
		"host":    r.Host,
		"params":  params,
		"query":   query,
		"headers": headers,
		"body":    r.Payload,
	}
}
