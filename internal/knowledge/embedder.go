package knowledge

import "math"

// Dim is the fixed dimensionality of pseudo-embeddings. The documents table
// declares its vector column with the same value; changing this requires a
// migration and a full reindex (perch index).
const Dim = 256

// fnv32 constants for the rolling character-code hash.
const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// Embed computes the deterministic pseudo-embedding of text.
//
// This is NOT a semantic embedding. A rolling FNV-style hash runs over the
// character codes; at each step the running hash selects a pair of vector
// positions and contributes the sine and cosine of the scaled hash value.
// The result is L2-normalized so cosine similarity reduces to a dot product.
// Identical strings always produce identical vectors, and strings sharing
// character sequences land near each other often enough to make top-K
// retrieval behave predictably in tests and demos.
func Embed(text string) []float32 {
	acc := make([]float64, Dim)

	h := fnvOffset
	for _, r := range text {
		h = (h ^ uint32(r)) * fnvPrime

		i := int(h % Dim)
		// Scale the hash into [0, 2π) before projecting.
		phase := float64(h%1000003) / 1000003 * 2 * math.Pi
		acc[i] += math.Sin(phase)
		acc[(i+Dim/2)%Dim] += math.Cos(phase)
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}

	vec := make([]float32, Dim)
	if norm == 0 {
		// Empty or degenerate input embeds to the zero vector, which has
		// similarity 0 to everything.
		return vec
	}

	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

// CosineSimilarity returns the cosine similarity of two vectors.
// Mismatched dimensions and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
