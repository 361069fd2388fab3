// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Uncertain is the pseudo-category emitted by the decision layer when the
// classifier's confidence falls below the acceptance threshold. It is never
// stored as ground truth.
const Uncertain = "Uncertain"

// categories is the fixed, closed set of canonical spending categories.
var categories = []string{
	"Food & Dining",
	"Shopping",
	"Fuel",
	"Travel & Transport",
	"Utilities",
	"Health & Fitness",
	"Entertainment",
	"Bills & Subscriptions",
	"Groceries",
	"Others",
}

// categoryAliases maps canonical categories to free-text synonyms. Aliases
// only normalize externally supplied labels; they play no role at inference.
var categoryAliases = map[string][]string{
	"Food & Dining":         {"food", "restaurants", "dining", "eating out"},
	"Shopping":              {"ecommerce", "online shopping", "retail"},
	"Fuel":                  {"petrol", "diesel", "gas station"},
	"Travel & Transport":    {"transportation", "cab", "uber", "ola", "bus", "train", "flight"},
	"Utilities":             {"electricity", "water", "gas", "internet", "mobile recharge"},
	"Health & Fitness":      {"medical", "pharmacy", "hospital", "doctor", "gym"},
	"Entertainment":         {"movies", "netflix", "music", "games", "ott"},
	"Bills & Subscriptions": {"subscription", "bill", "monthly plan"},
	"Groceries":             {"supermarket", "vegetables", "daily needs", "mart"},
	"Others":                {"misc", "general", "unknown"},
}

// Categories returns a copy of the canonical category list.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsCanonical reports whether label is one of the canonical categories.
func IsCanonical(label string) bool {
	for _, c := range categories {
		if c == label {
			return true
		}
	}
	return false
}

// NormalizeLabel maps a free-text category label to a canonical category.
// Unrecognized labels fall back to "Others".
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, canonical := range categories {
		if label == strings.ToLower(canonical) {
			return canonical
		}
		for _, alias := range categoryAliases[canonical] {
			if label == alias {
				return canonical
			}
		}
	}
	return "Others"
}
