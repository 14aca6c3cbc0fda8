package reputation

import (
	"net/url"
	"strings"
)

// Tags returned with the prior score.
const (
	TagLocalOrUserInput = "LOCAL_OR_USER_INPUT"
	TagLowReputation    = "LOW_REPUTATION_SOURCE"
	TagMajorOutlet      = "MAJOR_OUTLET_BIAS_FLAGGED"
	TagUnknown          = "UNKNOWN_SOURCE"
)

// Prior scores per tag. Static policy tables; swap the lists without
// touching the interface.
const (
	scoreNeutral   = 0.5
	scoreLowRep    = 0.3
	scoreMajor     = 0.75
	scoreUnmatched = 0.9
)

var lowReputationKeywords = []string{
	"blogspot", "wordpress", "substack", "beforeitsnews", "infowars",
	"naturalnews", "worldtruth", "clickhole", "patriot", "exposed",
}

var majorOutlets = []string{
	"cnn.com", "foxnews.com", "nytimes.com", "washingtonpost.com",
	"bbc.com", "bbc.co.uk", "reuters.com", "apnews.com", "theguardian.com",
	"bloomberg.com", "wsj.com", "nbcnews.com", "abcnews.go.com", "cbsnews.com",
}

// nonSourceMarkers are placeholder hosts used for pasted text or local
// testing; they carry no reputation signal.
var nonSourceMarkers = []string{"localhost", "127.0.0.1", "user-input", "example.com"}

// Estimator maps a URL (or raw text) to a prior credibility score and a
// category tag for the domain.
type Estimator struct{}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate parses the host out of the input and applies the static
// tables. Raw text or unparseable input gets the neutral prior.
func (e *Estimator) Estimate(urlOrText string) (float64, string) {
	domain := Domain(urlOrText)
	if domain == "" {
		return scoreNeutral, TagLocalOrUserInput
	}

	for _, marker := range nonSourceMarkers {
		if strings.Contains(domain, marker) {
			return scoreNeutral, TagLocalOrUserInput
		}
	}

	for _, kw := range lowReputationKeywords {
		if strings.Contains(domain, kw) {
			return scoreLowRep, TagLowReputation
		}
	}

	for _, outlet := range majorOutlets {
		if domain == outlet || strings.HasSuffix(domain, "."+outlet) {
			return scoreMajor, TagMajorOutlet
		}
	}

	return scoreUnmatched, TagUnknown
}

// Domain extracts the network-location component of a URL, lowercased
// and stripped of any leading www. Returns "" for non-URL input.
func Domain(urlOrText string) string {
	trimmed := strings.TrimSpace(urlOrText)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
