// Package gallery holds the in-memory collection of enrolled animals and the
// matching logic that decides the identity of a query signature.
package gallery

// Gallery is the collection of enrolled (animal identifier, signature) pairs.
// Labels and Embeddings are index-aligned: position i in one corresponds to
// position i in the other. The JSON shape matches the persisted document.
type Gallery struct {
	Labels     []string    `json:"labels"`
	Embeddings [][]float32 `json:"embeddings"`
}

// New returns an empty gallery.
func New() *Gallery {
	return &Gallery{
		Labels:     []string{},
		Embeddings: [][]float32{},
	}
}

// Len returns the number of enrolled animals.
func (g *Gallery) Len() int {
	return len(g.Labels)
}

// Index returns the position of a label, or -1 when absent.
func (g *Gallery) Index(label string) int {
	for i, l := range g.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Upsert inserts a signature for a label, replacing the existing entry if the
// label is already enrolled. Reports whether an entry was replaced.
func (g *Gallery) Upsert(label string, signature []float32) bool {
	if i := g.Index(label); i >= 0 {
		g.Embeddings[i] = signature
		return true
	}
	g.Labels = append(g.Labels, label)
	g.Embeddings = append(g.Embeddings, signature)
	return false
}

// Remove deletes a label and its index-aligned signature.
// Reports whether the label was present.
func (g *Gallery) Remove(label string) bool {
	i := g.Index(label)
	if i < 0 {
		return false
	}
	g.Labels = append(g.Labels[:i], g.Labels[i+1:]...)
	g.Embeddings = append(g.Embeddings[:i], g.Embeddings[i+1:]...)
	return true
}

// Clone returns a deep copy, safe to use after the original mutates.
func (g *Gallery) Clone() *Gallery {
	c := &Gallery{
		Labels:     make([]string, len(g.Labels)),
		Embeddings: make([][]float32, len(g.Embeddings)),
	}
	copy(c.Labels, g.Labels)
	for i, e := range g.Embeddings {
		v := make([]float32, len(e))
		copy(v, e)
		c.Embeddings[i] = v
	}
	return c
}
