// Package embedding wraps the remote text-embedding API behind a small
// client interface so components depend on an abstraction they can fake in
// tests.
//
// The client is deliberately thin: no caching, no retry, no rate limiting.
// A transient remote failure propagates to the caller unchanged — search,
// recording, and proposal generation all treat embedding as a hard
// dependency.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when an empty string is passed to Embed.
var ErrEmptyText = errors.New("text cannot be empty")

// Client generates fixed-dimensionality vector embeddings for text.
type Client interface {
	// Embed converts one text into a vector. Empty text is an input error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts several texts in one remote call. An empty input
	// returns an empty result without touching the remote service.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the configured output dimensionality.
	Dimension() int
}
