// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper returns the same response (or error) on every call and
// records how many calls it served.
type MockRoundTripper struct {
	response *http.Response
	err      error
	Calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Calls++
	return m.response, m.err
}

// SequenceRoundTripper returns canned responses in order, repeating the last
// one when the sequence is exhausted. It records how many calls it served.
type SequenceRoundTripper struct {
	responses []*http.Response
	Calls     int
}

func NewSequenceRoundTripper(responses ...*http.Response) *SequenceRoundTripper {
	return &SequenceRoundTripper{responses: responses}
}

func (s *SequenceRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	i := s.Calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.Calls++
	return s.responses[i], nil
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Response builds a canned *http.Response with the given status and body.
func Response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
