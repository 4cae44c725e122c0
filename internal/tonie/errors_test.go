package tonie

import (
	"io"
	"net/http"
	"strings"
	"testing"

	testutil "github.com/desertthunder/tcx/internal/testing"
)

func TestKindForStatus(t *testing.T) {
	tc := []struct {
		status int
		want   Kind
	}{
		{400, KindValidation},
		{401, KindAuthentication},
		{403, KindAuthentication},
		{404, KindNotFound},
		{418, KindGeneric},
		{429, KindRateLimit},
		{500, KindServer},
		{502, KindServer},
		{503, KindServer},
	}

	for _, tt := range tc {
		if got := kindForStatus(tt.status); got != tt.want {
			t.Errorf("kindForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Run("json message field", func(t *testing.T) {
		err := classify(401, []byte(`{"message":"Invalid token"}`))
		if err.Kind != KindAuthentication {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAuthentication)
		}
		if err.Message != "Invalid token" {
			t.Errorf("Message = %q, want %q", err.Message, "Invalid token")
		}
	})

	t.Run("non-json body used verbatim", func(t *testing.T) {
		err := classify(500, []byte("internal error"))
		if err.Message != "internal error" {
			t.Errorf("Message = %q, want %q", err.Message, "internal error")
		}
		if err.Kind != KindServer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindServer)
		}
	})

	t.Run("empty body falls back to status", func(t *testing.T) {
		err := classify(404, nil)
		if err.Message != "HTTP 404" {
			t.Errorf("Message = %q, want %q", err.Message, "HTTP 404")
		}
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("json without message falls back to body", func(t *testing.T) {
		err := classify(400, []byte(`{"error":"bad"}`))
		if err.Message != `{"error":"bad"}` {
			t.Errorf("Message = %q", err.Message)
		}
	})
}

func TestClassifyResponse(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: 429,
			Body:       io.NopCloser(strings.NewReader(`{"message":"slow down"}`)),
		}
		err := ClassifyResponse(resp)
		if err.Kind != KindRateLimit {
			t.Errorf("Kind = %v, want %v", err.Kind, KindRateLimit)
		}
		if err.StatusCode != 429 {
			t.Errorf("StatusCode = %d, want 429", err.StatusCode)
		}
		if err.Message != "slow down" {
			t.Errorf("Message = %q, want %q", err.Message, "slow down")
		}
	})

	t.Run("unreadable body falls back to status", func(t *testing.T) {
		resp := &http.Response{StatusCode: 500, Body: &testutil.FCloser{}}
		err := ClassifyResponse(resp)
		if err.Message != "HTTP 500" {
			t.Errorf("Message = %q, want %q", err.Message, "HTTP 500")
		}
		if err.Kind != KindServer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindServer)
		}
	})
}

func TestAPIErrorError(t *testing.T) {
	err := &APIError{Kind: KindNotFound, Message: "household not found", StatusCode: 404}
	want := "household not found (status 404)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
