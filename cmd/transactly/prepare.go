package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/storage"
)

// merchantTemplates lists example merchants per category, used to synthesize
// a bootstrap training corpus when no real data is available.
var merchantTemplates = []struct {
	category  string
	merchants []string
}{
	{"Food & Dining", []string{"Zomato", "Swiggy", "McDonalds", "Dominos", "KFC", "Starbucks"}},
	{"Shopping", []string{"Amazon", "Flipkart", "Myntra", "Ajio", "Meesho"}},
	{"Fuel", []string{"IndianOil", "HP Petrol", "BharatPetrol", "Shell"}},
	{"Travel & Transport", []string{"Uber", "Ola", "IRCTC", "AirIndia", "IndiGo"}},
	{"Utilities", []string{"Airtel Recharge", "BSNL Bill", "TNEB Payment", "Jio Fiber"}},
	{"Health & Fitness", []string{"Apollo Pharmacy", "1mg", "Cult Fit", "MedPlus"}},
	{"Entertainment", []string{"Netflix", "Hotstar", "Spotify", "BookMyShow"}},
	{"Bills & Subscriptions", []string{"YouTube Premium", "Google One", "Apple Music", "Canva Pro"}},
	{"Groceries", []string{"BigBasket", "Dunzo", "Reliance Fresh", "More Supermarket"}},
	{"Others", []string{"Unknown", "Misc Payment", "Transfer"}},
}

func prepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Generate a synthetic bootstrap training corpus",
		Long: `Generate a synthetic training corpus from per-category merchant
templates and write it to the canonical corpus location. Run this once
before the first retrain when no real transaction data is available.`,
		RunE: runPrepare,
	}
	cmd.Flags().Int("per-category", 300, "Synthetic samples per category")
	cmd.Flags().Int64("seed", 42, "RNG seed")
	return cmd
}

func runPrepare(cmd *cobra.Command, _ []string) error {
	perCategory, _ := cmd.Flags().GetInt("per-category")
	seed, _ := cmd.Flags().GetInt64("seed")
	paths := dataPaths()

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data, not crypto

	var rows []model.Transaction
	for _, tmpl := range merchantTemplates {
		for i := 0; i < perCategory; i++ {
			merchant := tmpl.merchants[rng.Intn(len(tmpl.merchants))]
			rows = append(rows, model.Transaction{
				ID:          fmt.Sprintf("TXN%06d", rng.Intn(900000)+100000),
				Description: fmt.Sprintf("%s payment #%d", merchant, rng.Intn(9000)+1000),
				Amount:      float64(rng.Intn(490000)+10000) / 100,
				Category:    tmpl.category,
			})
		}
	}

	rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })

	// Duplicate descriptions collapse, keeping the first occurrence.
	seen := make(map[string]struct{}, len(rows))
	unique := rows[:0]
	for _, row := range rows {
		if _, ok := seen[row.Description]; ok {
			continue
		}
		seen[row.Description] = struct{}{}
		unique = append(unique, row)
	}

	if err := storage.SaveCorpus(paths.CorpusPath(), unique); err != nil {
		return err
	}

	cmd.Printf("Corpus saved: %s (%d rows)\n", paths.CorpusPath(), len(unique))
	return nil
}
