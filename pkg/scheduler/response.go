package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getmockd/routemock/pkg/httputil"
	"github.com/getmockd/routemock/pkg/route"
)

var (
	// ErrAlreadySent is returned by Send and End after the response was
	// finalized.
	ErrAlreadySent = errors.New("response already sent")

	// ErrClosed is returned when the handler has already returned, because
	// the client went away before a delayed response was due.
	ErrClosed = errors.New("response closed")
)

// Response is the route.ResponseSink backing one request.
type Response struct {
	w   http.ResponseWriter
	log *slog.Logger

	mu     sync.Mutex
	status int
	sent   bool
	closed bool
	bytes  int
	err    error

	// pending counts scheduled callbacks; idle is closed when it drops to
	// zero while wait is blocked.
	pending int
	idle    chan struct{}
}

var _ route.ResponseSink = (*Response)(nil)

// NewResponse wraps w.
func NewResponse(w http.ResponseWriter, log *slog.Logger) *Response {
	return &Response{w: w, log: log}
}

// Header returns the response headers.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// Status sets the status code used when the response is finalized.
func (r *Response) Status(code int) route.ResponseSink {
	r.mu.Lock()
	r.status = code
	r.mu.Unlock()
	return r
}

// Send encodes v and writes it: strings as text, byte slices as binary,
// everything else as JSON. A Content-Type header set beforehand is kept.
func (r *Response) Send(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}

	body, contentType, err := httputil.EncodeBody(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if r.w.Header().Get("Content-Type") == "" {
		r.w.Header().Set("Content-Type", contentType)
	}
	r.w.WriteHeader(r.code())
	r.sent = true
	n, err := r.w.Write(body)
	r.bytes = n
	return err
}

// End finalizes the response without a body.
func (r *Response) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(); err != nil {
		return err
	}
	r.w.WriteHeader(r.code())
	r.sent = true
	return nil
}

// Sent reports whether the response was finalized.
func (r *Response) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

func (r *Response) checkOpen() error {
	switch {
	case r.closed:
		return ErrClosed
	case r.sent:
		r.log.Warn("second send on response ignored")
		return ErrAlreadySent
	}
	return nil
}

func (r *Response) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// fail answers 500 with a JSON error body unless something was sent.
func (r *Response) fail(code string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err == nil {
		r.err = err
	}
	if r.sent || r.closed {
		return
	}
	httputil.WriteInternalError(r.w, code, err.Error())
	r.status = http.StatusInternalServerError
	r.sent = true
}

// track registers a scheduled callback. It reports false once the handler
// has returned, in which case the callback must not run.
func (r *Response) track() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.pending++
	return true
}

// untrack marks a scheduled callback as finished.
func (r *Response) untrack() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if r.pending == 0 && r.idle != nil {
		close(r.idle)
		r.idle = nil
	}
}

// wait blocks until every scheduled callback has run or ctx is done, then
// closes the response to late writers and late schedules.
func (r *Response) wait(ctx context.Context) {
	for {
		r.mu.Lock()
		if r.pending == 0 {
			r.closed = true
			r.mu.Unlock()
			return
		}
		idle := make(chan struct{})
		r.idle = idle
		r.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			r.mu.Lock()
			r.closed = true
			r.idle = nil
			r.mu.Unlock()
			return
		}
	}
}

// outcome summarizes the response for the request log.
type outcome struct {
	status int
	bytes  int
	err    error
}

func (r *Response) outcome(ctx context.Context) outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := outcome{bytes: r.bytes, err: r.err}
	switch {
	case r.sent:
		o.status = r.code()
	case ctx.Err() == nil:
		// net/http answers 200 when the handler returns without writing.
		o.status = http.StatusOK
	}
	return o
}
