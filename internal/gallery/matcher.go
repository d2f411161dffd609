package gallery

import "math"

// DefaultThreshold is the minimum cosine similarity for an accepted match.
const DefaultThreshold = 0.9

// Outcome classifies an identification result.
type Outcome int

const (
	// OutcomeMatched means the query matched an enrolled animal.
	OutcomeMatched Outcome = iota
	// OutcomeUnknown means the best score fell below the threshold.
	OutcomeUnknown
	// OutcomeGalleryEmpty means there was nothing to match against.
	OutcomeGalleryEmpty
)

// Match is the result of identifying a query signature.
// Label is only meaningful for OutcomeMatched. For OutcomeUnknown, Score still
// carries the best score found so callers can see how close the nearest
// rejected match was.
type Match struct {
	Outcome Outcome
	Label   string
	Score   float64
}

// CosineSimilarity computes the cosine similarity between two signature
// vectors. Returns a value between -1 and 1, where 1 means identical.
// Mismatched lengths and zero vectors yield 0 instead of dividing by zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Identify finds the enrolled animal most similar to the query signature.
// The best score is the maximum cosine similarity over the gallery; ties are
// broken by the lowest index. A best score below the threshold yields
// OutcomeUnknown together with that score.
func Identify(query []float32, g *Gallery, threshold float64) Match {
	if g == nil || g.Len() == 0 || len(g.Embeddings) == 0 {
		return Match{Outcome: OutcomeGalleryEmpty, Score: 0.0}
	}

	bestIndex := 0
	bestScore := CosineSimilarity(query, g.Embeddings[0])
	for i := 1; i < len(g.Embeddings); i++ {
		if score := CosineSimilarity(query, g.Embeddings[i]); score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}

	if bestScore < threshold {
		return Match{Outcome: OutcomeUnknown, Score: bestScore}
	}
	return Match{Outcome: OutcomeMatched, Label: g.Labels[bestIndex], Score: bestScore}
}
