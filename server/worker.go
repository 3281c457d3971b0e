package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/image"
)

var errWorkerStopped = errors.New("server: worker stopped")

// store holds the latest analysis per document. Only the worker goroutine
// touches it.
type store struct {
	docs map[string]*Analysis
}

func newStore() *store {
	return &store{docs: make(map[string]*Analysis)}
}

// update analyzes text for uri. When the parsed tree hashes the same as
// the previous version, the previous analysis is kept and reused reports
// true.
func (s *store) update(uri, text string) (a *Analysis, reused bool) {
	prog, err := compiler.Parse(text)
	if err != nil {
		a = &Analysis{Diagnostics: []compiler.Diagnostic{compiler.ErrorDiagnostic(err)}}
		s.docs[uri] = a
		return a, false
	}

	if prev, ok := s.docs[uri]; ok && prev.Hash != (image.Hash{}) {
		if h, err := image.HashProgram(prog); err == nil && h == prev.Hash {
			return prev, true
		}
	}

	a = analyzeProgram(prog)
	s.docs[uri] = a
	return a, false
}

// workRequest is a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*store) interface{}
	done chan workResult
}

// workResult holds the return value from a worker operation.
type workResult struct {
	value interface{}
	err   error
}

// Worker serializes all document state access through a single goroutine.
// LSP handlers run concurrently; the store is not safe for concurrent use.
type Worker struct {
	store    *store
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		store:    newStore(),
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function against the store, recovering from panics.
func (w *Worker) execute(fn func(*store) interface{}) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.store)
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*store) interface{}) (interface{}, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case <-w.quit:
		return nil, errWorkerStopped
	default:
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, errWorkerStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, errWorkerStopped
	}
}

// Update analyzes a new version of a document.
func (w *Worker) Update(uri, text string) (*Analysis, error) {
	v, err := w.Do(func(s *store) interface{} {
		a, _ := s.update(uri, text)
		return a
	})
	if err != nil {
		return nil, err
	}
	return v.(*Analysis), nil
}

// Analysis returns the latest analysis of uri, or nil.
func (w *Worker) Analysis(uri string) *Analysis {
	v, err := w.Do(func(s *store) interface{} {
		return s.docs[uri]
	})
	if err != nil {
		return nil
	}
	a, _ := v.(*Analysis)
	return a
}

// Forget drops the state of a closed document.
func (w *Worker) Forget(uri string) {
	_, _ = w.Do(func(s *store) interface{} {
		delete(s.docs, uri)
		return nil
	})
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
