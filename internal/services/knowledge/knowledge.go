package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Hit is one scored retrieval result
type Hit struct {
	Term  Term
	Score int
}

// Snippet renders a hit in the form the prompt augmentation expects
func (h Hit) Snippet() string {
	return fmt.Sprintf("%s: %s (Ex: \"%s\")", h.Term.Term, h.Term.Definition, h.Term.Example)
}

// Service interface for knowledge base retrieval. Keyword matching over an
// immutable in-memory table; a future swap to an indexed store must keep
// this contract.
type Service interface {
	Retrieve(query string) []Hit
	Snippets(query string) []string
	AllTerms() []Term
}

const maxHits = 3

// scoring weights: a term substring match outranks a definition match
const (
	termScore       = 5
	definitionScore = 2
)

var queryPunctuation = strings.NewReplacer("?", "", ".", "", ",", "", "!", "")

// SlangService retrieves slang terms by keyword scoring
type SlangService struct {
	terms  []Term
	logger *logrus.Logger
}

// NewSlangService creates a retriever over the built-in slang dictionary
func NewSlangService(logger *logrus.Logger) *SlangService {
	return &SlangService{terms: SlangDatabase, logger: logger}
}

// NewSlangServiceWithTerms creates a retriever over a caller-supplied table
func NewSlangServiceWithTerms(terms []Term, logger *logrus.Logger) *SlangService {
	return &SlangService{terms: terms, logger: logger}
}

// Retrieve scores every entry against the query tokens and returns the top
// matches, best first. Queries that produce no usable tokens, or match
// nothing, return an empty result.
func (s *SlangService) Retrieve(query string) []Hit {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(s.terms))
	for _, t := range s.terms {
		termLower := strings.ToLower(t.Term)
		defLower := strings.ToLower(t.Definition)

		score := 0
		for _, token := range tokens {
			if strings.Contains(termLower, token) {
				score += termScore
			}
			if strings.Contains(defLower, token) {
				score += definitionScore
			}
		}

		if score > 0 {
			hits = append(hits, Hit{Term: t, Score: score})
		}
	}

	// Stable sort keeps dictionary order on ties so results are
	// deterministic across runs.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > maxHits {
		hits = hits[:maxHits]
	}

	s.logger.WithFields(logrus.Fields{
		"query": query,
		"hits":  len(hits),
	}).Debug("Knowledge base retrieval")

	return hits
}

// Snippets returns the formatted snippet strings for the top matches
func (s *SlangService) Snippets(query string) []string {
	hits := s.Retrieve(query)
	snippets := make([]string, 0, len(hits))
	for _, h := range hits {
		snippets = append(snippets, h.Snippet())
	}
	return snippets
}

// AllTerms returns the full dictionary
func (s *SlangService) AllTerms() []Term {
	terms := make([]Term, len(s.terms))
	copy(terms, s.terms)
	return terms
}

// tokenize lower-cases the query, strips sentence punctuation and drops
// tokens under 3 characters.
func tokenize(query string) []string {
	cleaned := queryPunctuation.Replace(strings.ToLower(query))

	var tokens []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) < 3 {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
