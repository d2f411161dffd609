package gallery

// Mean computes the element-wise arithmetic mean across signature vectors.
// All vectors must share the length of the first; shorter trailing vectors
// would indicate an extractor bug, so the function returns nil for any
// mismatch. Returns nil for an empty input.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	mean := make([]float32, dim)
	n := float64(len(vectors))
	for i, s := range sum {
		mean[i] = float32(s / n)
	}
	return mean
}
