package factcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		ratings []string
		want    Outcome
	}{
		{
			name:    "no ratings",
			ratings: nil,
			want:    Outcome{Status: StatusNoExternalMatch},
		},
		{
			name:    "majority false",
			ratings: []string{"False", "Pants on fire: a lie", "Mostly accurate"},
			want:    Outcome{Status: StatusContradictory, Confidence: MatchConfidence},
		},
		{
			name:    "majority true",
			ratings: []string{"True", "Correct attribution"},
			want:    Outcome{Status: StatusSupporting, Confidence: MatchConfidence},
		},
		{
			name:    "misleading counts as false",
			ratings: []string{"Misleading"},
			want:    Outcome{Status: StatusContradictory, Confidence: MatchConfidence},
		},
		{
			name:    "tie is mixed with zero confidence",
			ratings: []string{"False", "True"},
			want:    Outcome{Status: StatusMixedExternal},
		},
		{
			name:    "unrecognized ratings only",
			ratings: []string{"Unproven", "Needs context"},
			want:    Outcome{Status: StatusNoExternalMatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.ratings)
			if got != tt.want {
				t.Errorf("Reduce(%v) = %+v, want %+v", tt.ratings, got, tt.want)
			}
		})
	}
}

func TestLookupWithoutKey(t *testing.T) {
	client := NewClient("", "", time.Second)

	got := client.Lookup(context.Background(), "the earth is flat")
	if got.Status != StatusAPIKeyMissing || got.Confidence != 0 {
		t.Errorf("got %+v, want API_KEY_MISSING with zero confidence", got)
	}
}

func TestLookupEmptyClaim(t *testing.T) {
	client := NewClient("key", "", time.Second)

	got := client.Lookup(context.Background(), "")
	if got.Status != StatusAPIKeyMissing {
		t.Errorf("got %+v, want API_KEY_MISSING for empty claim", got)
	}
}

func TestLookupReducesAggregatorRatings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "" {
			t.Error("query parameter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"claims": [
				{"text": "claim", "claimReview": [
					{"publisher": {"name": "Desk A"}, "textualRating": "False"},
					{"publisher": {"name": "Desk B"}, "textualRating": "Mostly false"}
				]}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("key", server.URL, time.Second)

	got := client.Lookup(context.Background(), "the moon is made of cheese")
	if got.Status != StatusContradictory || got.Confidence != MatchConfidence {
		t.Errorf("got %+v, want CONTRADICTORY at %v", got, MatchConfidence)
	}
}

func TestLookupServerErrorMapsToAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("key", server.URL, time.Second)

	got := client.Lookup(context.Background(), "some claim")
	if got.Status != StatusAPIError || got.Confidence != 0 {
		t.Errorf("got %+v, want API_ERROR with zero confidence", got)
	}
}
