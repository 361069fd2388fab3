package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactly/transactly/internal/model"
)

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name         string
		input        string
		wantCategory string
		wantMatch    bool
	}{
		{name: "travel booking", input: "irctc train booking 7845", wantCategory: "Travel & Transport", wantMatch: true},
		{name: "fuel payment", input: "payment to indianoil chennai", wantCategory: "Fuel", wantMatch: true},
		{name: "food order", input: "zomato order 92384", wantCategory: "Food & Dining", wantMatch: true},
		{name: "shopping", input: "amazon purchase 8293", wantCategory: "Shopping", wantMatch: true},
		{name: "entertainment", input: "netflix subscription 499", wantCategory: "Entertainment", wantMatch: true},
		{name: "utilities", input: "airtel bill payment", wantCategory: "Utilities", wantMatch: true},
		{name: "health", input: "apollo pharmacy invoice", wantCategory: "Health & Fitness", wantMatch: true},
		{name: "groceries", input: "bigbasket groceries order", wantCategory: "Groceries", wantMatch: true},
		{name: "subscriptions", input: "google one storage plan", wantCategory: "Bills & Subscriptions", wantMatch: true},
		{name: "mixed case", input: "NETFLIX Subscription", wantCategory: "Entertainment", wantMatch: true},
		{name: "leading whitespace", input: "   uber ride home", wantCategory: "Travel & Transport", wantMatch: true},
		{name: "no match", input: "transfer to unknown merchant", wantMatch: false},
		{name: "empty", input: "", wantMatch: false},
		{name: "substring must not match", input: "amazonia rainforest fund", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, pattern, ok := m.Match(tt.input)
			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.wantCategory, category)
				assert.NotEmpty(t, pattern)
			} else {
				assert.Empty(t, category)
				assert.Empty(t, pattern)
			}
		})
	}
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	// Two rules that both match; order decides.
	m, err := NewMatcherWith([]model.Rule{
		{Pattern: `\buber\b`, Category: "Travel & Transport"},
		{Pattern: `\buber eats\b`, Category: "Food & Dining"},
	})
	require.NoError(t, err)

	category, pattern, ok := m.Match("uber eats order 12")
	require.True(t, ok)
	assert.Equal(t, "Travel & Transport", category)
	assert.Equal(t, `\buber\b`, pattern)
}

func TestNewMatcherWith_Validation(t *testing.T) {
	t.Run("invalid regex", func(t *testing.T) {
		_, err := NewMatcherWith([]model.Rule{{Pattern: `(`, Category: "Fuel"}})
		assert.Error(t, err)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := NewMatcherWith([]model.Rule{{Pattern: `\bfoo\b`, Category: "Nonsense"}})
		assert.Error(t, err)
	})
}

func TestDefaultRules_CategoriesCanonical(t *testing.T) {
	for _, r := range DefaultRules {
		assert.True(t, model.IsCanonical(r.Category), "rule %q maps to non-canonical category %q", r.Pattern, r.Category)
	}
}
