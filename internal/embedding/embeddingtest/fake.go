// Package embeddingtest provides a deterministic in-process embedding.Client
// for tests. Vectors are derived from an FNV hash of the input so equal texts
// always embed identically and no network is involved.
package embeddingtest

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/proposalkb/proposalkb/internal/embedding"
)

// Fake implements embedding.Client without any remote calls.
type Fake struct {
	// Calls counts remote-equivalent invocations (one per Embed, one per
	// non-empty EmbedBatch).
	Calls int

	// Err, when set, is returned by every call.
	Err error

	dim int
}

// NewFake creates a Fake emitting vectors of the given dimensionality.
func NewFake(dim int) *Fake {
	return &Fake{dim: dim}
}

// Embed returns a deterministic pseudo-vector for the text.
func (f *Fake) Embed(_ context.Context, text string) ([]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if text == "" {
		return nil, embedding.ErrEmptyText
	}
	f.Calls++
	return f.vector(text), nil
}

// EmbedBatch returns deterministic pseudo-vectors, one remote call per batch.
func (f *Fake) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	f.Calls++

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if t == "" {
			return nil, embedding.ErrEmptyText
		}
		out[i] = f.vector(t)
	}
	return out, nil
}

// Dimension reports the configured dimensionality.
func (f *Fake) Dimension() int {
	return f.dim
}

func (f *Fake) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, f.dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(math.Sin(float64(seed % 10007)))
	}
	return vec
}
