package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/truthchain/backend/internal/signal"
)

func TestClassifyFallbackWithoutEndpoint(t *testing.T) {
	adapter := NewAdapter("", "", 0, 0)

	tests := []struct {
		name           string
		title          string
		content        string
		wantConfidence float64
		wantVerdict    signal.Verdict
	}{
		{"neutral text", "Budget vote", "The council approved the measure.", 0.5, signal.VerdictMixed},
		{"one sensational keyword", "Shocking vote result", "The council approved the measure.", 0.4, signal.VerdictMixed},
		{"two sensational keywords", "Shocking miracle cure", "Doctors hate this one trick.", 0.25, signal.VerdictFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.Classify(context.Background(), tt.title, tt.content, "")

			if got.Confidence != tt.wantConfidence || got.Verdict != tt.wantVerdict {
				t.Errorf("got %v/%v, want %v/%v", got.Confidence, got.Verdict, tt.wantConfidence, tt.wantVerdict)
			}
			if !got.Degraded || got.Method != MethodFallback {
				t.Errorf("fallback prediction should be marked degraded, got %+v", got)
			}
		})
	}
}

func TestClassifyAgainstModelEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		wantVerdict signal.Verdict
	}{
		{"high probability is true", 0.92, signal.VerdictTrue},
		{"low probability is false", 0.08, signal.VerdictFalse},
		{"middle probability is mixed", 0.5, signal.VerdictMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/classify" {
					t.Errorf("path = %q, want /classify", r.URL.Path)
				}

				var payload map[string]string
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode payload: %v", err)
				}
				if !strings.Contains(payload["text"], separator) {
					t.Errorf("payload text %q should join title and content with the separator", payload["text"])
				}

				json.NewEncoder(w).Encode(map[string]float64{"real_probability": tt.probability})
			}))
			defer server.Close()

			adapter := NewAdapter(server.URL, "", 0, time.Second)
			got := adapter.Classify(context.Background(), "Headline", "Body text of the article.", "example.org")

			if got.Verdict != tt.wantVerdict || got.Confidence != tt.probability {
				t.Errorf("got %v/%v, want %v/%v", got.Verdict, got.Confidence, tt.wantVerdict, tt.probability)
			}
			if got.Degraded || got.Method != MethodModel {
				t.Errorf("model prediction should not be degraded, got %+v", got)
			}
		})
	}
}

func TestClassifyDegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewAdapter(server.URL, "", 0, time.Second)
	got := adapter.Classify(context.Background(), "Headline", "Body text.", "")

	if !got.Degraded || got.Method != MethodFallback {
		t.Errorf("server failure should degrade to the fallback, got %+v", got)
	}
}

func TestInferTruncatesOversizedInput(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		seen = payload["text"]
		json.NewEncoder(w).Encode(map[string]float64{"real_probability": 0.5})
	}))
	defer server.Close()

	adapter := NewAdapter(server.URL, "", 100, time.Second)
	adapter.Classify(context.Background(), "Title", strings.Repeat("x", 500), "")

	if len(seen) != 100 {
		t.Errorf("sent %d chars, want input truncated to 100", len(seen))
	}
}
