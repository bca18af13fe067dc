package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proposalkb/proposalkb/internal/proposal"
)

// ParseRFPInput defines the input schema for parse_rfp.
type ParseRFPInput struct {
	DocumentURL  string `json:"document_url" jsonschema:"URL or path of the RFP document"`
	RFPNumber    string `json:"rfp_number,omitempty" jsonschema:"RFP reference number"`
	ClientName   string `json:"client_name,omitempty" jsonschema:"Name of the client"`
	ProjectTitle string `json:"project_title,omitempty" jsonschema:"Title of the project"`
	TenantID     string `json:"tenant_id,omitempty" jsonschema:"Tenant UUID; falls back to the configured default"`
}

// GenerateProposalInput defines the input schema for generate_proposal.
type GenerateProposalInput struct {
	RFPID string `json:"rfp_id" jsonschema:"UUID of the RFP to generate a proposal for"`
}

func (s *Server) registerProposalTools() error {
	parseSchema, err := jsonschema.For[ParseRFPInput](nil)
	if err != nil {
		return fmt.Errorf("schema for parse_rfp: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "parse_rfp",
		Description: "Ingest an RFP document: store it with a requirements summary and " +
			"embed it for semantic matching. Returns the rfp_id for generate_proposal.",
		InputSchema: parseSchema,
	}, s.ParseRFP)

	generateSchema, err := jsonschema.For[GenerateProposalInput](nil)
	if err != nil {
		return fmt.Errorf("schema for generate_proposal: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "generate_proposal",
		Description: "Generate a draft proposal for a parsed RFP: allocate matching " +
			"resources, price the team, and open one validation request per resource. " +
			"Reports progress when a progress token is supplied.",
		InputSchema: generateSchema,
	}, s.GenerateProposal)

	return nil
}

// ParseRFP handles the parse_rfp MCP tool call.
func (s *Server) ParseRFP(ctx context.Context, _ *mcp.CallToolRequest, in ParseRFPInput) (*mcp.CallToolResult, any, error) {
	res, err := s.cfg.Parser.ParseRFP(ctx, proposal.ParseInput{
		DocumentURL:  in.DocumentURL,
		RFPNumber:    in.RFPNumber,
		ClientName:   in.ClientName,
		ProjectTitle: in.ProjectTitle,
		TenantID:     in.TenantID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("parse_rfp failed: %w", err)
	}

	result, err := jsonResult(res)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// GenerateProposal handles the generate_proposal MCP tool call.
func (s *Server) GenerateProposal(ctx context.Context, req *mcp.CallToolRequest, in GenerateProposalInput) (*mcp.CallToolResult, any, error) {
	rfpID, err := uuid.Parse(in.RFPID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid rfp_id %q: %w", in.RFPID, err)
	}

	summary, err := s.cfg.Generator.Generate(ctx, rfpID, s.progressReporter(ctx, req))
	if err != nil {
		return nil, nil, fmt.Errorf("generate_proposal failed: %w", err)
	}
	return textResult(summary), nil, nil
}
