package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/requestlog"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/template"
)

// DefaultMaxBodySize bounds the request body read for templates.
const DefaultMaxBodySize = 1 << 20

// Mocker expands mock placeholders in a rendered value.
type Mocker interface {
	Mock(v any) any
}

type identityMocker struct{}

func (identityMocker) Mock(v any) any { return v }

// lockedRand serializes access to a *rand.Rand.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) count(r *route.Range) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return r.Count(l.rng)
}

func (l *lockedRand) delay(d *route.Delay) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return d.Resolve(l.rng)
}

// Scheduler builds handlers for route specs. A Scheduler is safe for
// concurrent use; ForGeneration returns a copy sharing all collaborators.
type Scheduler struct {
	renderer   *template.Renderer
	mocker     Mocker
	log        *slog.Logger
	requests   requestlog.Logger
	rand       *lockedRand
	afterFunc  func(d time.Duration, fn func())
	maxBody    int64
	generation string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMocker sets the mock generator applied to rendered templates.
func WithMocker(m Mocker) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.mocker = m
		}
	}
}

// WithRequestLog records every finished request in l.
func WithRequestLog(l requestlog.Logger) Option {
	return func(s *Scheduler) {
		s.requests = l
	}
}

// WithRand sets the source used for repeat counts and delays.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rand = &lockedRand{rng: rng}
		}
	}
}

// WithMaxBodySize limits how much of a request body is decoded.
func WithMaxBodySize(n int64) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a Scheduler rendering templates with r.
func New(r *template.Renderer, opts ...Option) *Scheduler {
	s := &Scheduler{
		renderer: r,
		mocker:   identityMocker{},
		log:      logging.Nop(),
		rand:     &lockedRand{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))},
		afterFunc: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForGeneration returns a Scheduler whose handlers report gen in the
// request log.
func (s *Scheduler) ForGeneration(gen string) *Scheduler {
	c := *s
	c.generation = gen
	return &c
}

// Build returns the handler serving spec.
func (s *Scheduler) Build(spec *route.Spec) http.Handler {
	return &handler{s: s, spec: spec, generation: s.generation}
}

type handler struct {
	s          *Scheduler
	spec       *route.Spec
	generation string
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := NewResponse(w, h.s.log.With("route", h.spec.String()))
	req := &route.Request{
		Request:  r,
		Params:   route.ParamsFrom(r.Context()),
		Received: start,
	}

	payload, err := readPayload(r, h.s.maxBody)
	if err != nil {
		h.s.log.Warn("request body unreadable", "route", h.spec.String(), "error", err)
	}
	req.Payload = payload
	h.s.Dispatch(h.spec, req, res)

	res.wait(r.Context())
	h.s.record(h.spec, h.generation, r, res.outcome(r.Context()), start)
}

// Dispatch runs the pipeline for one request. It returns once the response
// is finalized or its finalization is scheduled.
func (s *Scheduler) Dispatch(spec *route.Spec, req *route.Request, res *Response) {
	defer func() {
		if p := recover(); p != nil {
			s.fail(spec, res, "panic", fmt.Errorf("panic: %v", p))
		}
	}()

	count := 1
	if spec.Range != nil {
		count = s.rand.count(spec.Range)
	}
	h := s.helpers(res, count)

	candidate, err := s.produce(spec, req, res, h)
	if err != nil {
		s.fail(spec, res, errorCode(err), err)
		return
	}

	for _, p := range spec.Processors {
		candidate, err = p(candidate, req, res, h)
		if err != nil {
			s.fail(spec, res, "processor_error", err)
			return
		}
	}

	switch {
	case candidate == any(res):
		h.DelayCall(spec.Delay, func() {
			if err := res.End(); err != nil {
				s.log.Debug("end skipped", "route", spec.String(), "error", err)
			}
		})
	case candidate != nil:
		h.DelayCall(spec.Delay, func() {
			err := res.Send(candidate)
			switch {
			case err == nil, errors.Is(err, ErrAlreadySent), errors.Is(err, ErrClosed):
			default:
				s.fail(spec, res, "encode_error", err)
			}
		})
	}
}

func (s *Scheduler) produce(spec *route.Spec, req *route.Request, res *Response, h *route.Helpers) (any, error) {
	if spec.Generator != nil {
		return spec.Generator(req, res, h)
	}

	vars := req.Vars()
	if spec.Range == nil {
		v, err := s.renderer.Render(spec.Template, renderContext(vars, spec.Args, nil))
		if err != nil {
			return nil, err
		}
		return s.mocker.Mock(v), nil
	}

	out := make([]any, h.Count)
	for i := range out {
		v, err := s.renderer.Render(spec.Template, renderContext(vars, spec.Args, &i))
		if err != nil {
			return nil, err
		}
		out[i] = s.mocker.Mock(v)
	}
	return out, nil
}

// renderContext builds {req, request, i, index} and merges args over it.
func renderContext(vars, args map[string]any, index *int) map[string]any {
	ctx := map[string]any{
		"req":     vars,
		"request": vars,
	}
	if index != nil {
		ctx["i"] = *index
		ctx["index"] = *index
	}
	maps.Copy(ctx, args)
	return ctx
}

func (s *Scheduler) helpers(res *Response, count int) *route.Helpers {
	return &route.Helpers{
		Count:  count,
		Render: s.renderer.Render,
		Mock:   s.mocker.Mock,
		Eval:   s.renderer.Eval,
		DelayCall: func(d *route.Delay, fn func()) {
			if !res.track() {
				s.log.Debug("delayed call dropped after the handler returned")
				return
			}
			wait := s.rand.delay(d)
			run := func() {
				defer res.untrack()
				defer func() {
					if p := recover(); p != nil {
						res.fail("panic", fmt.Errorf("panic in delayed call: %v", p))
					}
				}()
				fn()
			}
			if wait <= 0 {
				run()
				return
			}
			s.afterFunc(wait, run)
		},
	}
}

func (s *Scheduler) fail(spec *route.Spec, res *Response, code string, err error) {
	s.log.Warn("route failed", "route", spec.String(), "source", spec.Source, "error", err)
	res.fail(code, err)
}

func (s *Scheduler) record(spec *route.Spec, gen string, r *http.Request, o outcome, start time.Time) {
	if s.requests == nil {
		return
	}
	entry := &requestlog.Entry{
		Timestamp:   start,
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryString: r.URL.RawQuery,
		Route:       spec.String(),
		Source:      spec.Source,
		Generation:  gen,
		Status:      o.status,
		Bytes:       o.bytes,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if o.err != nil {
		entry.Error = o.err.Error()
	}
	s.requests.Log(entry)
}

func errorCode(err error) string {
	var renderErr *template.RenderError
	if errors.As(err, &renderErr) {
		return "render_error"
	}
	return "generator_error"
}

// readPayload decodes the request body for templates: JSON bodies as JSON
// values, form bodies as maps, anything else as text.
func readPayload(r *http.Request, limit int64) (any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	case "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(data)); err == nil {
			form := make(map[string]any, len(values))
			for k, vs := range values {
				if len(vs) == 1 {
					form[k] = vs[0]
					continue
				}
				list := make([]any, len(vs))
				for i, v := range vs {
					list[i] = v
				}
				form[k] = list
			}
			return form, nil
		}
	}
	return string(data), nil
}
