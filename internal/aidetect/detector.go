package aidetect

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// markerPhrases are shallow tells common in machine-generated prose.
var markerPhrases = []string{
	"as an ai language model",
	"it is important to note",
	"in conclusion,",
	"in summary,",
	"furthermore,",
	"moreover,",
	"delve into",
	"a testament to",
	"ever-evolving landscape",
}

const (
	baseProbability   = 0.05
	perMarkerWeight   = 0.12
	diversityWeight   = 0.3
	diversityMinCount = 50
)

// Probability estimates how likely the text is machine-generated from
// token count, lexical diversity, and marker phrases. Not a learned
// model: a pure, deterministic function, safe to unit test exactly.
func Probability(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	p := baseProbability

	lower := strings.ToLower(trimmed)
	for _, phrase := range markerPhrases {
		if strings.Contains(lower, phrase) {
			p += perMarkerWeight
		}
	}

	tokens := tokenize(lower)
	if len(tokens) >= diversityMinCount {
		unique := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			unique[t] = struct{}{}
		}
		diversity := float64(len(unique)) / float64(len(tokens))
		p += diversityWeight * (1 - diversity)
	}

	if p > 1 {
		p = 1
	}
	return p
}

func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.Fields(text)
	}

	toks := doc.Tokens()
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}
