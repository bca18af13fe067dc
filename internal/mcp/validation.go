package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proposalkb/proposalkb/internal/notify"
	"github.com/proposalkb/proposalkb/internal/validation"
)

// defaultListLimit caps the queue listing tools.
const defaultListLimit = 20

// SendTeamsValidationInput defines the input schema for send_teams_validation.
type SendTeamsValidationInput struct {
	ValidationID       string         `json:"validation_id" jsonschema:"UUID of the validation request"`
	RecipientEmail     string         `json:"recipient_email" jsonschema:"Email of the approver"`
	ValidationQuestion string         `json:"validation_question" jsonschema:"Question to ask the approver"`
	CurrentInformation map[string]any `json:"current_information" jsonschema:"Current data about the entity"`
	EntityName         string         `json:"entity_name" jsonschema:"Name of the entity being validated"`
}

// SendEmailValidationInput defines the input schema for send_email_validation.
type SendEmailValidationInput struct {
	ValidationID       string         `json:"validation_id" jsonschema:"UUID of the validation request"`
	RecipientEmail     string         `json:"recipient_email" jsonschema:"Email of the approver"`
	RecipientName      string         `json:"recipient_name" jsonschema:"Name of the approver"`
	ValidationQuestion string         `json:"validation_question" jsonschema:"Question to ask the approver"`
	CurrentInformation map[string]any `json:"current_information" jsonschema:"Current data about the entity"`
	EntityName         string         `json:"entity_name" jsonschema:"Name of the entity being validated"`
}

// ProcessValidationResponseInput defines the input schema for
// process_validation_response.
type ProcessValidationResponseInput struct {
	ValidationID       string         `json:"validation_id" jsonschema:"Validation request UUID, or the token from an emailed response link"`
	Approved           bool           `json:"approved" jsonschema:"Whether the information was approved"`
	Corrections        string         `json:"corrections,omitempty" jsonschema:"Free-text corrections from the approver"`
	UpdatedInformation map[string]any `json:"updated_information,omitempty" jsonschema:"Structured field updates from the approver"`
}

// ListInput defines the input schema for the queue listing tools.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of rows (default 20)"`
}

func (s *Server) registerValidationTools() error {
	teamsSchema, err := jsonschema.For[SendTeamsValidationInput](nil)
	if err != nil {
		return fmt.Errorf("schema for send_teams_validation: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "send_teams_validation",
		Description: "Send a validation request to an approver as a Microsoft Teams " +
			"Adaptive Card and mark the request sent.",
		InputSchema: teamsSchema,
	}, s.SendTeamsValidation)

	emailSchema, err := jsonschema.For[SendEmailValidationInput](nil)
	if err != nil {
		return fmt.Errorf("schema for send_email_validation: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "send_email_validation",
		Description: "Send a validation request to an approver as an HTML email with " +
			"a tokenized response link and mark the request sent.",
		InputSchema: emailSchema,
	}, s.SendEmailValidation)

	processSchema, err := jsonschema.For[ProcessValidationResponseInput](nil)
	if err != nil {
		return fmt.Errorf("schema for process_validation_response: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "process_validation_response",
		Description: "Store a human validation response. Corrections or updated " +
			"information also record a reviewed experience entry and update the " +
			"entity record.",
		InputSchema: processSchema,
	}, s.ProcessValidationResponse)

	listSchema, err := jsonschema.For[ListInput](nil)
	if err != nil {
		return fmt.Errorf("schema for listing tools: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_pending_reviews",
		Description: "List recorded experience entries awaiting human review.",
		InputSchema: listSchema,
	}, s.ListPendingReviews)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_active_validations",
		Description: "List validation requests still awaiting a human response.",
		InputSchema: listSchema,
	}, s.ListActiveValidations)

	return nil
}

// SendTeamsValidation handles the send_teams_validation MCP tool call.
func (s *Server) SendTeamsValidation(ctx context.Context, req *mcp.CallToolRequest, in SendTeamsValidationInput) (*mcp.CallToolResult, any, error) {
	id, err := uuid.Parse(in.ValidationID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid validation_id %q: %w", in.ValidationID, err)
	}

	msg, err := s.cfg.Teams.Send(ctx, notify.TeamsRequest{
		ValidationID:       id,
		RecipientEmail:     in.RecipientEmail,
		ValidationQuestion: in.ValidationQuestion,
		CurrentInformation: in.CurrentInformation,
		EntityName:         in.EntityName,
	}, s.progressReporter(ctx, req))
	if err != nil {
		return nil, nil, fmt.Errorf("send_teams_validation failed: %w", err)
	}
	return textResult(msg), nil, nil
}

// SendEmailValidation handles the send_email_validation MCP tool call.
func (s *Server) SendEmailValidation(ctx context.Context, req *mcp.CallToolRequest, in SendEmailValidationInput) (*mcp.CallToolResult, any, error) {
	id, err := uuid.Parse(in.ValidationID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid validation_id %q: %w", in.ValidationID, err)
	}

	msg, err := s.cfg.Email.Send(ctx, notify.EmailRequest{
		ValidationID:       id,
		RecipientEmail:     in.RecipientEmail,
		RecipientName:      in.RecipientName,
		ValidationQuestion: in.ValidationQuestion,
		CurrentInformation: in.CurrentInformation,
		EntityName:         in.EntityName,
	}, s.progressReporter(ctx, req))
	if err != nil {
		return nil, nil, fmt.Errorf("send_email_validation failed: %w", err)
	}
	return textResult(msg), nil, nil
}

// ProcessValidationResponse handles the process_validation_response MCP tool call.
func (s *Server) ProcessValidationResponse(ctx context.Context, _ *mcp.CallToolRequest, in ProcessValidationResponseInput) (*mcp.CallToolResult, any, error) {
	res, err := s.cfg.Processor.Process(ctx, validation.Input{
		ValidationID:       in.ValidationID,
		Approved:           in.Approved,
		Corrections:        in.Corrections,
		UpdatedInformation: in.UpdatedInformation,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("process_validation_response failed: %w", err)
	}

	result, err := jsonResult(res)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// ListPendingReviews handles the list_pending_reviews MCP tool call.
func (s *Server) ListPendingReviews(ctx context.Context, _ *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	reviews, err := s.cfg.Lister.ListPendingReviews(ctx, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list_pending_reviews failed: %w", err)
	}

	result, err := jsonResult(reviews)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// ListActiveValidations handles the list_active_validations MCP tool call.
func (s *Server) ListActiveValidations(ctx context.Context, _ *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	validations, err := s.cfg.Lister.ListActiveValidations(ctx, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list_active_validations failed: %w", err)
	}

	result, err := jsonResult(validations)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}
