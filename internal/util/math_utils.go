package util

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two float32 vectors.
// A zero-magnitude vector yields 0.
func CosineSimilarity(vec1 []float32, vec2 []float32) (float64, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("input vectors cannot be empty")
	}
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vector dimensions do not match: %d vs %d", len(vec1), len(vec2))
	}

	var dotProduct, mag1Squared, mag2Squared float64
	for i := range vec1 {
		a, b := float64(vec1[i]), float64(vec2[i])
		dotProduct += a * b
		mag1Squared += a * a
		mag2Squared += b * b
	}

	if mag1Squared == 0 || mag2Squared == 0 {
		return 0, nil
	}
	return dotProduct / (math.Sqrt(mag1Squared) * math.Sqrt(mag2Squared)), nil
}

// Similarity converts cosine similarity into a relevance score in [0, 1]
// computed as 1 - cosine distance.
func Similarity(vec1, vec2 []float32) (float64, error) {
	cos, err := CosineSimilarity(vec1, vec2)
	if err != nil {
		return 0, err
	}
	return Clamp01(cos), nil
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
