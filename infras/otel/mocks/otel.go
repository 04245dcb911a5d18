// Package mocks provides an in-memory otel.Otel that records span names and traced errors.
package mocks

import (
	"context"
	"rental/infras/otel"
	"sync"
)

type Recorder struct {
	mu     sync.Mutex
	spans  []string
	errors []error
}

func NewOtel() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NewScope(ctx context.Context, _, name string) (context.Context, otel.Scope) {
	r.mu.Lock()
	r.spans = append(r.spans, name)
	r.mu.Unlock()

	return ctx, &scope{recorder: r}
}

// Spans returns the span names opened so far, in order.
func (r *Recorder) Spans() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.spans...)
}

// Errors returns every error traced on any span.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.errors...)
}

func (r *Recorder) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, err)
}

type scope struct {
	recorder *Recorder
}

func (s *scope) AddEvent(string)              {}
func (s *scope) End()                         {}
func (s *scope) SetAttribute(string, any)     {}
func (s *scope) SetAttributes(map[string]any) {}
func (s *scope) TraceError(err error)         { s.recorder.record(err) }

func (s *scope) TraceIfError(err error) {
	if err != nil {
		s.recorder.record(err)
	}
}
