package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proposalkb/proposalkb/internal/experience"
)

// RecordExperienceInput defines the input schema for record_experience.
type RecordExperienceInput struct {
	Description    string   `json:"description" jsonschema:"Detailed description of the learned fact"`
	Keywords       []string `json:"keywords,omitempty" jsonschema:"Optional keywords; extracted from the description when omitted"`
	EntityType     string   `json:"entity_type,omitempty" jsonschema:"Type of the associated entity (internal_resource, external_resource, policy)"`
	EntityID       string   `json:"entity_id,omitempty" jsonschema:"UUID of the associated entity"`
	EntityName     string   `json:"entity_name,omitempty" jsonschema:"Display name of the associated entity"`
	SourceType     string   `json:"source_type,omitempty" jsonschema:"How this knowledge was obtained (default ai_inference)"`
	SourceID       string   `json:"source_id,omitempty" jsonschema:"Reference to the validation request or proposal it came from"`
	Confidence     float64  `json:"confidence,omitempty" jsonschema:"Confidence in this fact 0.0-1.0 (default 0.8)"`
	RequiresReview *bool    `json:"requires_review,omitempty" jsonschema:"Whether the fact passes the human review queue before becoming searchable (default true)"`
	TenantID       string   `json:"tenant_id,omitempty" jsonschema:"Tenant UUID; falls back to the configured default"`
}

// RecordExperienceOutput is the record_experience result payload.
type RecordExperienceOutput struct {
	Success      bool   `json:"success"`
	ExperienceID string `json:"experience_id"`
	Message      string `json:"message"`
}

func (s *Server) registerExperienceTools() error {
	recordSchema, err := jsonschema.For[RecordExperienceInput](nil)
	if err != nil {
		return fmt.Errorf("schema for record_experience: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "record_experience",
		Description: "Record a learned fact in the knowledge base. Facts default to the " +
			"human review queue and become searchable only after validation.",
		InputSchema: recordSchema,
	}, s.RecordExperience)

	return nil
}

// RecordExperience handles the record_experience MCP tool call.
func (s *Server) RecordExperience(ctx context.Context, _ *mcp.CallToolRequest, in RecordExperienceInput) (*mcp.CallToolResult, any, error) {
	requiresReview := true
	if in.RequiresReview != nil {
		requiresReview = *in.RequiresReview
	}

	id, err := s.cfg.Recorder.Record(ctx, experience.Input{
		TenantID:       in.TenantID,
		Description:    in.Description,
		Keywords:       in.Keywords,
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		EntityName:     in.EntityName,
		SourceType:     in.SourceType,
		SourceID:       in.SourceID,
		Confidence:     in.Confidence,
		RequiresReview: requiresReview,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("record_experience failed: %w", err)
	}

	about := in.EntityName
	if about == "" {
		about = "general topic"
	}
	result, err := jsonResult(RecordExperienceOutput{
		Success:      true,
		ExperienceID: id.String(),
		Message:      fmt.Sprintf("Recorded experience about %s", about),
	})
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}
