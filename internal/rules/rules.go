// Package rules implements deterministic pattern-to-category matching.
// Rule evidence is treated as ground truth by the decision engine and is
// never overridden by the model.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/transactly/transactly/internal/model"
)

// DefaultRules is the ordered rule table. Order is a contract: rules are
// evaluated front-to-back and the first match wins, so overlapping vocabulary
// resolves deterministically.
var DefaultRules = []model.Rule{
	{Pattern: `\b(irctc|airindia|indigo|goair|spicejet|uber|ola)\b`, Category: "Travel & Transport"},
	{Pattern: `\b(indianoil|hpcl|hindustan petroleum|bharatpetrol|shell)\b`, Category: "Fuel"},
	{Pattern: `\b(zomato|swiggy|dominos|kfc|mcdonalds|starbucks)\b`, Category: "Food & Dining"},
	{Pattern: `\b(amazon|flipkart|myntra|ajio|meesho|reliance trends)\b`, Category: "Shopping"},
	{Pattern: `\b(apollo pharmacy|1mg|medplus|pharmeasy|cult fit|gym)\b`, Category: "Health & Fitness"},
	{Pattern: `\b(netflix|hotstar|spotify|bookmyshow|pvr|youtube premium|apple tv)\b`, Category: "Entertainment"},
	{Pattern: `\b(tneb|bsnl|airtel|jio fiber|vi recharge|electricity bill|gas bill)\b`, Category: "Utilities"},
	{Pattern: `\b(bigbasket|reliance fresh|dunzo|more supermarket)\b`, Category: "Groceries"},
	{Pattern: `\b(google one|canva pro|dropbox|office 365|prime membership)\b`, Category: "Bills & Subscriptions"},
}

type compiledRule struct {
	re       *regexp.Regexp
	pattern  string
	category string
}

// Matcher evaluates an ordered rule list. It is immutable after construction
// and safe for concurrent use.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles the default rule table.
func NewMatcher() *Matcher {
	m, err := NewMatcherWith(DefaultRules)
	if err != nil {
		// The default table is static; a compile failure is a programming error.
		panic(err)
	}
	return m
}

// NewMatcherWith compiles a custom ordered rule list.
func NewMatcherWith(rules []model.Rule) (*Matcher, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if !model.IsCanonical(r.Category) {
			return nil, fmt.Errorf("rule %q maps to unknown category %q", r.Pattern, r.Category)
		}
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling rule pattern %q: %w", r.Pattern, err)
		}
		compiled = append(compiled, compiledRule{re: re, pattern: r.Pattern, category: r.Category})
	}
	return &Matcher{rules: compiled}, nil
}

// Match returns the category and pattern of the first rule whose regular
// expression matches the text. Absence of a match is not an error.
func (m *Matcher) Match(text string) (category, pattern string, ok bool) {
	text = strings.TrimSpace(strings.ToLower(text))
	for _, r := range m.rules {
		if r.re.MatchString(text) {
			return r.category, r.pattern, true
		}
	}
	return "", "", false
}
