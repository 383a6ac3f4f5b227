// Package testkit provides test doubles for Hoffee's outgoing HTTP calls.
package testkit

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockStep describes one expected outgoing request and the synthetic
// response to return for it.
type MockStep struct {
	MatchURL   string // prefix match; empty matches any URL
	StatusCode int
	Body       string
	Err        error // return a transport error instead of a response
}

// MockTransport implements http.RoundTripper. It matches outgoing requests
// against its steps and returns synthetic responses instead of hitting the
// network.
//
// Install it on the shared client before the test:
//
//	mt := testkit.NewMockTransport(steps...)
//	hoffeehttp.DefaultClient.Transport = mt
//	defer hoffeehttp.ResetTransport()
type MockTransport struct {
	mu    sync.Mutex
	steps []mockEntry
}

type mockEntry struct {
	step      MockStep
	callCount int
}

// NewMockTransport builds a MockTransport from the given steps.
func NewMockTransport(steps ...MockStep) *MockTransport {
	mt := &MockTransport{}
	for _, s := range steps {
		mt.steps = append(mt.steps, mockEntry{step: s})
	}
	return mt
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for i := range mt.steps {
		entry := &mt.steps[i]
		if !urlMatches(req.URL.String(), entry.step.MatchURL) {
			continue
		}

		entry.callCount++
		if entry.step.Err != nil {
			return nil, entry.step.Err
		}

		status := entry.step.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(entry.step.Body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader(`{"error":"no mock configured"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Calls returns how many times the step at index i was triggered.
func (mt *MockTransport) Calls(i int) int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if i < 0 || i >= len(mt.steps) {
		return 0
	}
	return mt.steps[i].callCount
}

// AssertAllCalled returns an error per step that was never triggered.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.callCount == 0 {
			errs = append(errs, fmt.Errorf(
				"testkit: mock step (matchUrl=%q) was never called", e.step.MatchURL))
		}
	}
	return errs
}

// urlMatches returns true when candidate matches pattern.
// Empty pattern matches any URL; otherwise a substring match is performed.
func urlMatches(candidate, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(candidate, pattern)
}
