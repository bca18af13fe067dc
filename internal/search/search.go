// Package search composes the embedding client with the database's hybrid
// search stored functions. It adds no ranking of its own: scores, ordering,
// and threshold enforcement all happen remotely.
package search

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/proposalkb/proposalkb/internal/embedding"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/store"
)

// Default parameters for the two searches, matching the tool surface.
const (
	DefaultResourceLimit       = 10
	DefaultResourceThreshold   = 0.7
	DefaultExperienceLimit     = 20
	DefaultExperienceThreshold = 0.6
)

// Backend is the slice of the store this facade needs.
// Interfaces live with the consumer, mirroring http.RoundTripper.
type Backend interface {
	SearchResources(ctx context.Context, queryText string, queryEmbedding pgvector.Vector, matchThreshold float64, matchCount int) ([]store.InternalResource, error)
	SearchExperience(ctx context.Context, queryText string, queryEmbedding pgvector.Vector, matchThreshold float64, matchCount int, entityType *string) ([]store.ExperienceMatch, error)
}

// Facade embeds queries and forwards them to the stored functions.
type Facade struct {
	backend  Backend
	embedder embedding.Client
	logger   log.Logger
}

// New creates a search Facade.
func New(backend Backend, embedder embedding.Client, logger log.Logger) (*Facade, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Facade{backend: backend, embedder: embedder, logger: logger}, nil
}

// ResourceQuery parameterizes Resources. Zero limit/threshold fall back to
// the tool defaults.
type ResourceQuery struct {
	Query          string
	ResourceType   string // optional equality filter (staff, tool, asset, facility, license)
	MaxResults     int
	MatchThreshold float64
}

// Resources searches internal resources. The resource_type filter is applied
// client-side after results return: the stored function does not accept it as
// a parameter. (The experience function does filter remotely — an
// inconsistency inherited from the original schema, kept for compatibility.)
func (f *Facade) Resources(ctx context.Context, q ResourceQuery) ([]store.InternalResource, error) {
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultResourceLimit
	}
	if q.MatchThreshold <= 0 {
		q.MatchThreshold = DefaultResourceThreshold
	}

	vec, err := f.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	resources, err := f.backend.SearchResources(ctx, q.Query, pgvector.NewVector(vec), q.MatchThreshold, q.MaxResults)
	if err != nil {
		return nil, err
	}

	if q.ResourceType != "" {
		filtered := make([]store.InternalResource, 0, len(resources))
		for _, r := range resources {
			if r.ResourceType == q.ResourceType {
				filtered = append(filtered, r)
			}
		}
		resources = filtered
	}

	f.logger.Debug("resource search", "query_len", len(q.Query),
		"results", len(resources), "type_filter", q.ResourceType)
	return resources, nil
}

// ExperienceQuery parameterizes Experience. Zero limit/threshold fall back to
// the tool defaults.
type ExperienceQuery struct {
	Query          string
	EntityType     string // optional, forwarded to the stored function
	MaxResults     int
	MatchThreshold float64
}

// Experience searches validated institutional knowledge.
func (f *Facade) Experience(ctx context.Context, q ExperienceQuery) ([]store.ExperienceMatch, error) {
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultExperienceLimit
	}
	if q.MatchThreshold <= 0 {
		q.MatchThreshold = DefaultExperienceThreshold
	}

	vec, err := f.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var entityType *string
	if q.EntityType != "" {
		entityType = &q.EntityType
	}

	matches, err := f.backend.SearchExperience(ctx, q.Query, pgvector.NewVector(vec), q.MatchThreshold, q.MaxResults, entityType)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("experience search", "query_len", len(q.Query), "results", len(matches))
	return matches, nil
}
