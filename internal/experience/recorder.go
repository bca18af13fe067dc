// Package experience records learned facts into the knowledge base. This is
// the primary way the AI builds institutional knowledge; every fact is gated
// behind human review unless the caller explicitly opts out.
package experience

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/proposalkb/proposalkb/internal/embedding"
	"github.com/proposalkb/proposalkb/internal/keywords"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/store"
)

// Source type constants for experience provenance.
const (
	// SourceAIInference marks facts the AI derived on its own.
	SourceAIInference = "ai_inference"

	// SourceValidationResponse marks facts extracted from a human's
	// validation answer.
	SourceValidationResponse = "validation_response"

	// SourceRFPAnalysis marks facts learned while parsing an RFP.
	SourceRFPAnalysis = "rfp_analysis"
)

// DefaultConfidence applies when the caller does not score the fact.
const DefaultConfidence = 0.8

// ErrEmptyDescription is returned when the fact has no text.
var ErrEmptyDescription = errors.New("description is required")

// Inserter is the slice of the store this recorder needs.
type Inserter interface {
	InsertExperience(ctx context.Context, rec store.ExperienceRecord) (uuid.UUID, error)
}

// Recorder embeds and persists learned facts.
type Recorder struct {
	inserter      Inserter
	embedder      embedding.Client
	defaultTenant *uuid.UUID
	logger        log.Logger
}

// NewRecorder creates a Recorder. defaultTenant may be nil for single-tenant
// deployments whose schema tolerates tenant-less experience rows.
func NewRecorder(inserter Inserter, embedder embedding.Client, defaultTenant *uuid.UUID, logger log.Logger) (*Recorder, error) {
	if inserter == nil {
		return nil, fmt.Errorf("inserter is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Recorder{
		inserter:      inserter,
		embedder:      embedder,
		defaultTenant: defaultTenant,
		logger:        logger,
	}, nil
}

// Input describes a fact to record. Zero-valued optional fields are omitted
// from the persisted row.
type Input struct {
	TenantID    string // optional UUID; falls back to the configured default
	Description string
	Keywords    []string // auto-extracted from Description when empty
	EntityType  string
	EntityID    string // optional UUID of the associated entity
	EntityName  string
	SourceType  string  // defaults to SourceAIInference
	SourceID    string  // reference to a validation request, proposal, ...
	Confidence  float64 // defaults to DefaultConfidence
	// RequiresReview gates search visibility: the row is persisted with
	// is_validated = !RequiresReview.
	RequiresReview bool
}

// Record embeds the description synchronously and inserts one experience
// row, returning its ID. Blocking on the embedding call is deliberate: the
// caller gets a durable, searchable record rather than a promise of later
// processing.
func (r *Recorder) Record(ctx context.Context, in Input) (uuid.UUID, error) {
	if in.Description == "" {
		return uuid.Nil, ErrEmptyDescription
	}

	tenant := r.defaultTenant
	if in.TenantID != "" {
		id, err := uuid.Parse(in.TenantID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid tenant_id %q: %w", in.TenantID, err)
		}
		tenant = &id
	}

	var entityID *uuid.UUID
	if in.EntityID != "" {
		id, err := uuid.Parse(in.EntityID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid entity_id %q: %w", in.EntityID, err)
		}
		entityID = &id
	}

	kw := in.Keywords
	if len(kw) == 0 {
		kw = keywords.Extract(in.Description, keywords.DefaultMax)
	}

	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = SourceAIInference
	}
	confidence := in.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}

	vec, err := r.embedder.Embed(ctx, in.Description)
	if err != nil {
		return uuid.Nil, fmt.Errorf("embedding description: %w", err)
	}

	rec := store.ExperienceRecord{
		TenantID:        tenant,
		Description:     in.Description,
		Keywords:        kw,
		SourceType:      sourceType,
		ConfidenceScore: confidence,
		Embedding:       vec,
		IsValidated:     !in.RequiresReview,
	}
	if in.EntityType != "" {
		rec.EntityType = &in.EntityType
	}
	rec.EntityID = entityID
	if in.EntityName != "" {
		rec.EntityName = &in.EntityName
	}
	if in.SourceID != "" {
		rec.SourceID = &in.SourceID
	}

	id, err := r.inserter.InsertExperience(ctx, rec)
	if err != nil {
		return uuid.Nil, err
	}

	r.logger.Info("recorded experience", "id", id,
		"source_type", sourceType, "requires_review", in.RequiresReview)
	return id, nil
}
