// Package normalize canonicalizes raw transaction descriptions into stable
// merchant identities. Messy strings like "AMZN PMT #9283" become "amazon",
// which gives both the rule matcher and the embedding model a clean surface.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/transactly/transactly/internal/service"
)

// FuzzyThreshold is the minimum 0-100 similarity score required to accept a
// fuzzy merchant match.
const FuzzyThreshold = 80

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// stripAccents decomposes characters and drops combining marks.
	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Clean applies unicode and regex normalization: accents stripped, symbols
// removed, whitespace collapsed, lowercased. Pure and total.
func Clean(raw string) string {
	text, _, err := transform.String(stripAccents, raw)
	if err != nil {
		text = raw
	}
	text = nonAlnumRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}

// tokenSortScorer rates strings with a token-order-insensitive ratio, the
// same scorer the merchant vocabulary was tuned against.
type tokenSortScorer struct{}

func (tokenSortScorer) Score(a, b string) int {
	return fuzzy.TokenSortRatio(a, b)
}

// Normalizer canonicalizes descriptions to merchant identities. It is
// immutable after construction and safe for concurrent use.
type Normalizer struct {
	scorer    service.Scorer
	merchants []string
	aliases   []compiledAlias
	threshold int
}

type compiledAlias struct {
	re        *regexp.Regexp
	canonical string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithScorer overrides the fuzzy similarity scorer.
func WithScorer(s service.Scorer) Option {
	return func(n *Normalizer) { n.scorer = s }
}

// WithThreshold overrides the fuzzy acceptance threshold.
func WithThreshold(t int) Option {
	return func(n *Normalizer) { n.threshold = t }
}

// New builds a Normalizer over the default alias table and merchant
// vocabulary.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		scorer:    tokenSortScorer{},
		merchants: defaultMerchants,
		threshold: FuzzyThreshold,
	}
	n.aliases = make([]compiledAlias, 0, len(defaultAliases))
	for _, a := range defaultAliases {
		n.aliases = append(n.aliases, compiledAlias{
			re:        regexp.MustCompile(`\b` + regexp.QuoteMeta(a.abbrev) + `\b`),
			canonical: a.canonical,
		})
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize runs the full canonicalization pipeline: clean, alias lookup,
// fuzzy merchant match, first-token fallback. It never fails; the worst case
// is an empty string. Canonical merchant names are fixed points, so
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	text := Clean(raw)

	for _, a := range n.aliases {
		if a.re.MatchString(text) {
			return a.canonical
		}
	}

	if best, score := n.bestMerchant(text); score >= n.threshold {
		return best
	}

	if fields := strings.Fields(text); len(fields) > 0 {
		return fields[0]
	}
	return text
}

// bestMerchant returns the highest-scoring canonical merchant for text.
func (n *Normalizer) bestMerchant(text string) (string, int) {
	best, bestScore := "", -1
	for _, m := range n.merchants {
		if score := n.scorer.Score(text, m); score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, bestScore
}
