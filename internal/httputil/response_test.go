package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicebridge-systems/voicebridge/internal/apierr"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusOK, map[string]bool{"received": true})

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var body map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body["received"] {
		t.Error("expected received=true")
	}
}

func TestWriteAPIError_Validation(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, apierr.Validation("phone_number is required"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "phone_number is required" {
		t.Errorf("unexpected error message: %q", body.Error)
	}
	if body.Details != "" {
		t.Errorf("expected no details, got %q", body.Details)
	}
}

func TestWriteAPIError_UpstreamDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, apierr.Upstream("checkout session failed", "no such price: price_123", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Details != "no such price: price_123" {
		t.Errorf("expected upstream details surfaced, got %q", body.Details)
	}
}

func TestWriteAPIError_UnclassifiedIsGeneric(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, errors.New("nil pointer somewhere"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("internal detail leaked to caller: %q", body.Error)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{
			name:   "x-forwarded-for first entry",
			header: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remote: "10.0.0.2:1234",
			want:   "203.0.113.7",
		},
		{
			name:   "x-real-ip",
			header: map[string]string{"X-Real-IP": "198.51.100.3"},
			remote: "10.0.0.2:1234",
			want:   "198.51.100.3",
		},
		{
			name:   "remote addr fallback",
			remote: "192.0.2.9:5555",
			want:   "192.0.2.9:5555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
