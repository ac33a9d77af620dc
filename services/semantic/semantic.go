// Package semantic implements the pluggable Semantic Similarity Scorer
// (§4.3): a pure function from two text strings to a similarity in [0,1].
package semantic

import (
	"math"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"reelsense/models"
)

const minTextLength = 10

// Scorer computes semantic similarity between two free-text strings. The
// rest of the core treats it as a black box (§4.3), so alternate
// implementations (embeddings, a remote model) can satisfy this interface.
type Scorer interface {
	Similarity(userText, movieText string) float64
}

// TokenOverlapScorer is the default implementation: a token-set Jaccard
// similarity over normalized, transliterated word tokens. Deterministic and
// entirely CPU-bound, matching §5's "must not suspend" requirement.
type TokenOverlapScorer struct{}

// NewTokenOverlapScorer constructs the default Scorer.
func NewTokenOverlapScorer() *TokenOverlapScorer { return &TokenOverlapScorer{} }

// Similarity returns 0 when either text is below the 10-character floor;
// callers substitute a neutral 0.5 in that case per §4.3.
func (TokenOverlapScorer) Similarity(userText, movieText string) float64 {
	if len(userText) < minTextLength || len(movieText) < minTextLength {
		return 0
	}
	a := tokenSet(userText)
	b := tokenSet(movieText)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return math.Round(float64(intersection)/float64(union)*1000) / 1000
}

func tokenSet(text string) map[string]bool {
	normalized := unidecode.Unidecode(strings.ToLower(text))
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue // drop short stopword-ish tokens, they add noise not signal
		}
		set[f] = true
	}
	return set
}

// ExtractMovieText concatenates title, overview, and genre names for a
// candidate, the text side of the semantic comparison (§4.3).
func ExtractMovieText(c models.Candidate, genreNames func(int) string) string {
	var b strings.Builder
	b.WriteString(c.Title)
	b.WriteString(" ")
	b.WriteString(c.Overview)
	for _, g := range c.Genres {
		if name := genreNames(g); name != "" {
			b.WriteString(" ")
			b.WriteString(name)
		}
	}
	return b.String()
}

// ExtractUserPreferenceText concatenates the non-empty free-text preference
// fields, the user side of the semantic comparison (§4.3).
func ExtractUserPreferenceText(p models.UserPreferences) string {
	var parts []string
	parts = append(parts, p.FavoriteContent...)
	if p.MoodPreferences != "" {
		parts = append(parts, p.MoodPreferences)
	}
	return strings.Join(parts, " ")
}
