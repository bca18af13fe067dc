// Package proposal turns RFPs into draft proposals: it parses and stores the
// incoming request, allocates matching internal resources, prices the team,
// and opens one validation request per allocated resource.
package proposal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/proposalkb/proposalkb/internal/embedding"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/store"
)

// ErrTenantRequired is returned when no tenant can be resolved for an RFP.
// RFP rows are always tenant-scoped.
var ErrTenantRequired = errors.New("tenant_id is required")

// RFPStore is the slice of the store the parser needs.
type RFPStore interface {
	InsertRFP(ctx context.Context, rec store.RFPRecord) (uuid.UUID, error)
	SetRFPEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// Parser ingests RFP documents.
//
// Parsing is currently shallow: the document URL is stored for later
// processing and the requirements carry only a generated summary.
// TODO: extract structured requirements from the document body once a
// document-parsing backend is wired in.
type Parser struct {
	store         RFPStore
	embedder      embedding.Client
	defaultTenant *uuid.UUID
	logger        log.Logger
}

// NewParser creates a Parser.
func NewParser(st RFPStore, embedder embedding.Client, defaultTenant *uuid.UUID, logger log.Logger) (*Parser, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Parser{store: st, embedder: embedder, defaultTenant: defaultTenant, logger: logger}, nil
}

// ParseInput describes an RFP to ingest.
type ParseInput struct {
	DocumentURL  string
	RFPNumber    string
	ClientName   string
	ProjectTitle string
	TenantID     string // optional UUID; falls back to the configured default
}

// ParseResult is returned from ParseRFP.
type ParseResult struct {
	RFPID        uuid.UUID      `json:"rfp_id"`
	Requirements map[string]any `json:"requirements"`
}

// ParseRFP stores the RFP and embeds its headline fields. The row is
// committed before the embedding call; a failed embedding leaves a valid RFP
// that simply cannot be matched semantically yet.
func (p *Parser) ParseRFP(ctx context.Context, in ParseInput) (*ParseResult, error) {
	if in.DocumentURL == "" {
		return nil, fmt.Errorf("document_url is required")
	}

	tenant, err := p.resolveTenant(in.TenantID)
	if err != nil {
		return nil, err
	}

	clientName := in.ClientName
	if clientName == "" {
		clientName = "Unknown Client"
	}
	title := in.ProjectTitle
	if title == "" {
		title = "Untitled Project"
	}

	requirements := map[string]any{
		"summary":      fmt.Sprintf("RFP for %s from %s", in.ProjectTitle, in.ClientName),
		"requirements": []any{},
		"deadlines":    map[string]any{},
		"budget":       map[string]any{},
	}

	rec := store.RFPRecord{
		TenantID:           tenant,
		ClientName:         clientName,
		ProjectTitle:       title,
		RawDocumentURL:     in.DocumentURL,
		ParsedMarkdown:     fmt.Sprintf("RFP document: %s", in.DocumentURL),
		ParsedRequirements: requirements,
	}
	if in.RFPNumber != "" {
		rec.RFPNumber = &in.RFPNumber
	}

	id, err := p.store.InsertRFP(ctx, rec)
	if err != nil {
		return nil, err
	}

	vec, err := p.embedder.Embed(ctx, fmt.Sprintf("%s %s %s", in.ProjectTitle, in.ClientName, in.DocumentURL))
	if err != nil {
		return nil, fmt.Errorf("embedding RFP %s: %w", id, err)
	}
	if err := p.store.SetRFPEmbedding(ctx, id, vec); err != nil {
		return nil, err
	}

	p.logger.Info("parsed RFP", "id", id, "client", clientName, "title", title)
	return &ParseResult{RFPID: id, Requirements: requirements}, nil
}

func (p *Parser) resolveTenant(raw string) (uuid.UUID, error) {
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid tenant_id %q: %w", raw, err)
		}
		return id, nil
	}
	if p.defaultTenant != nil {
		return *p.defaultTenant, nil
	}
	return uuid.Nil, ErrTenantRequired
}
