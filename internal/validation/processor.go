// Package validation processes human answers to validation requests: it
// updates the request's status, turns corrections into reviewed experience,
// and applies structured updates back to the entity record.
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/proposalkb/proposalkb/internal/experience"
	"github.com/proposalkb/proposalkb/internal/keywords"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/store"
)

// correctionConfidence scores facts stated by a human approver. High, but the
// row still passes the review queue before it becomes searchable.
const correctionConfidence = 0.95

// ResponseStore is the slice of the store the processor needs.
type ResponseStore interface {
	LookupValidationToken(ctx context.Context, token string) (uuid.UUID, error)
	RecordValidationResponse(ctx context.Context, id uuid.UUID, status string, corrections *string, responseData map[string]any) (*store.ValidationRequest, error)
	LinkExperience(ctx context.Context, validationID, experienceID uuid.UUID) (bool, error)
	PatchResource(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

// Recorder is the slice of the experience recorder the processor needs.
type Recorder interface {
	Record(ctx context.Context, in experience.Input) (uuid.UUID, error)
}

// Processor applies validation responses.
type Processor struct {
	store    ResponseStore
	recorder Recorder
	logger   log.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(st ResponseStore, recorder Recorder, logger log.Logger) (*Processor, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Processor{store: st, recorder: recorder, logger: logger}, nil
}

// Input is one human response. ValidationID accepts either the request's raw
// UUID (webhook path) or the token from an emailed link (portal path).
type Input struct {
	ValidationID       string
	Approved           bool
	Corrections        string
	UpdatedInformation map[string]any
}

// Result reports what the response changed.
type Result struct {
	Success          bool      `json:"success"`
	ValidationID     uuid.UUID `json:"validation_id"`
	KnowledgeUpdated bool      `json:"knowledge_updated"`
	Message          string    `json:"message"`
}

// Process stores the response on the validation request and, when the
// approver supplied corrections or updated data, records the learning and
// patches the entity. Status-only responses touch nothing else.
func (p *Processor) Process(ctx context.Context, in Input) (*Result, error) {
	id, err := p.resolveID(ctx, in.ValidationID)
	if err != nil {
		return nil, err
	}

	status := "rejected"
	if in.Approved {
		status = "approved"
	}

	var corrections *string
	if strings.TrimSpace(in.Corrections) != "" {
		corrections = &in.Corrections
	}
	responseData := map[string]any{
		"approved":            in.Approved,
		"corrections":         in.Corrections,
		"updated_information": in.UpdatedInformation,
	}

	req, err := p.store.RecordValidationResponse(ctx, id, status, corrections, responseData)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Success:      true,
		ValidationID: id,
		Message:      fmt.Sprintf("Validation response recorded with status %q", status),
	}

	if corrections == nil && len(in.UpdatedInformation) == 0 {
		return result, nil
	}

	if err := p.applyKnowledge(ctx, req, in); err != nil {
		return nil, err
	}
	result.KnowledgeUpdated = true
	result.Message = fmt.Sprintf("Validation response recorded with status %q; knowledge base updated", status)
	return result, nil
}

func (p *Processor) applyKnowledge(ctx context.Context, req *store.ValidationRequest, in Input) error {
	description := strings.TrimSpace(in.Corrections)
	if description == "" {
		description = fmt.Sprintf("Updated information for %s %s provided via validation response",
			req.EntityType, req.EntityID)
	}

	expInput := experience.Input{
		Description: description,
		Keywords:    keywords.Extract(in.Corrections, keywords.DefaultMax),
		EntityType:  req.EntityType,
		EntityID:    req.EntityID.String(),
		SourceType:  experience.SourceValidationResponse,
		SourceID:    req.ID.String(),
		Confidence:  correctionConfidence,
		// Human answers are trusted but still reviewed before they become
		// searchable knowledge.
		RequiresReview: true,
	}
	if req.TenantID != nil {
		expInput.TenantID = req.TenantID.String()
	}

	expID, err := p.recorder.Record(ctx, expInput)
	if err != nil {
		return fmt.Errorf("recording correction experience: %w", err)
	}

	linked, err := p.store.LinkExperience(ctx, req.ID, expID)
	if err != nil {
		return err
	}
	if !linked {
		p.logger.Warn("validation already linked to an experience",
			"validation_id", req.ID, "experience_id", expID)
	}

	// Only internal resources get their record patched from
	// updated_information; other entity types keep the correction as
	// experience only. (Inherited asymmetry, kept for compatibility.)
	if len(in.UpdatedInformation) > 0 && req.EntityType == "internal_resource" {
		if err := p.store.PatchResource(ctx, req.EntityID, in.UpdatedInformation); err != nil {
			return fmt.Errorf("patching resource %s: %w", req.EntityID, err)
		}
	}

	p.logger.Info("processed validation knowledge", "validation_id", req.ID,
		"experience_id", expID, "patched", len(in.UpdatedInformation) > 0)
	return nil
}

// resolveID treats the input as a UUID when it parses as one, otherwise as
// an emailed token to look up.
func (p *Processor) resolveID(ctx context.Context, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("validation_id is required")
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	id, err := p.store.LookupValidationToken(ctx, raw)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
