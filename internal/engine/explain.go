package engine

import (
	"math"
	"sort"

	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/storage"
)

// topSimilar returns the k reference examples most cosine-similar to vec,
// in descending similarity order. Advisory context only.
func topSimilar(vec []float32, store *storage.EmbeddingStore, k int) []model.SimilarExample {
	if k <= 0 || store.Len() == 0 {
		return nil
	}

	examples := make([]model.SimilarExample, store.Len())
	for i, ref := range store.Vectors {
		examples[i] = model.SimilarExample{
			Text:       store.Texts[i],
			Similarity: cosineSimilarity(vec, ref),
		}
	}

	sort.SliceStable(examples, func(a, b int) bool {
		return examples[a].Similarity > examples[b].Similarity
	})

	if k > len(examples) {
		k = len(examples)
	}
	return examples[:k]
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
